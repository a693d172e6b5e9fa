package transcriber

import (
	"strings"

	"github.com/dicttr/dicttr-go/internal/document"
)

// Deterministic placeholder texts for the local fallback, keyed by language.
// Longer recordings pick later, denser texts.
var sampleTexts = map[string][]string{
	"es": {
		"En esta reunión vamos a discutir los principales puntos del proyecto. Es importante que todos estemos alineados en los objetivos y plazos establecidos. Vamos a revisar el progreso actual y definir los próximos pasos a seguir.",
		"Hoy vamos a analizar las tendencias del mercado actual. Es fundamental entender cómo evoluciona el entorno empresarial para tomar decisiones estratégicas adecuadas. Consideremos los factores económicos, tecnológicos y sociales que influyen en nuestro sector.",
		"En esta presentación vamos a explorar diferentes enfoques para resolver el problema. Cada alternativa tiene sus ventajas y desventajas, por lo que debemos evaluarlas cuidadosamente antes de tomar una decisión final.",
		"Vamos a revisar los resultados del último trimestre. Los datos muestran un crecimiento positivo en la mayoría de las áreas, aunque hay algunos aspectos que requieren atención inmediata para mantener el impulso actual.",
		"En esta sesión vamos a compartir experiencias y mejores prácticas. El intercambio de conocimientos entre los participantes puede generar nuevas ideas y soluciones innovadoras para los desafíos que enfrentamos.",
	},
	"en": {
		"In this meeting we will discuss the main points of the project. It's important that we are all aligned on the established objectives and deadlines. Let's review the current progress and define the next steps to follow.",
		"Today we will analyze current market trends. It's essential to understand how the business environment evolves to make appropriate strategic decisions. Let's consider the economic, technological, and social factors that influence our sector.",
		"In this presentation we will explore different approaches to solve the problem. Each alternative has its advantages and disadvantages, so we must evaluate them carefully before making a final decision.",
		"Let's review the results of the last quarter. The data shows positive growth in most areas, although there are some aspects that require immediate attention to maintain the current momentum.",
		"In this session we will share experiences and best practices. The exchange of knowledge among participants can generate new ideas and innovative solutions for the challenges we face.",
	},
	"fr": {
		"Dans cette réunion, nous allons discuter des principaux points du projet. Il est important que nous soyons tous alignés sur les objectifs et délais établis. Passons en revue les progrès actuels et définissons les prochaines étapes à suivre.",
		"Aujourd'hui, nous allons analyser les tendances actuelles du marché. Il est essentiel de comprendre comment l'environnement des affaires évolue pour prendre des décisions stratégiques appropriées.",
		"Dans cette présentation, nous allons explorer différentes approches pour résoudre le problème. Chaque alternative a ses avantages et inconvénients, nous devons donc les évaluer soigneusement.",
	},
	"de": {
		"In diesem Meeting werden wir die Hauptpunkte des Projekts besprechen. Es ist wichtig, dass wir alle bezüglich der festgelegten Ziele und Fristen ausgerichtet sind.",
		"Heute werden wir aktuelle Markttrends analysieren. Es ist entscheidend zu verstehen, wie sich das Geschäftsumfeld entwickelt, um angemessene strategische Entscheidungen zu treffen.",
	},
}

// fallbackConfidence sits below realAPIConfidence to signal that the result
// is simulated.
const fallbackConfidence = 0.85

// LocalTranscript produces a deterministic, network-independent transcript.
// Duration is estimated from file size and the text picked by duration, so
// the same file always yields the same transcript.
func LocalTranscript(audioPath, language string) *document.RawTranscript {
	duration := estimateDurationSeconds(audioPath)

	texts, ok := sampleTexts[language]
	if !ok {
		texts = sampleTexts["es"]
	}
	idx := int(duration / 30)
	if idx > len(texts)-1 {
		idx = len(texts) - 1
	}
	text := texts[idx]

	return &document.RawTranscript{
		Text:            text,
		DurationSeconds: duration,
		Confidence:      fallbackConfidence,
		IsSimulated:     true,
		Segments:        simulateSegments(text, duration),
		Language:        language,
		FileSizeMB:      fileSizeMB(audioPath),
	}
}

// simulateSegments slices the text into ten-word segments spread evenly
// across the estimated duration.
func simulateSegments(text string, duration float64) []document.TranscriptSegment {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []document.TranscriptSegment{}
	}
	count := (len(words) + 9) / 10
	segDuration := duration / float64(count)

	segments := make([]document.TranscriptSegment, 0, count)
	for i := 0; i < count; i++ {
		lo := i * 10
		hi := lo + 10
		if hi > len(words) {
			hi = len(words)
		}
		segments = append(segments, document.TranscriptSegment{
			Index:        i,
			StartSeconds: float64(i) * segDuration,
			EndSeconds:   float64(i+1) * segDuration,
			Text:         strings.Join(words[lo:hi], " "),
			Confidence:   0.8 + 0.03*float64(i%5),
		})
	}
	return segments
}
