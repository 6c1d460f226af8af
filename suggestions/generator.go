package suggestions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/ArmandoArias/ia-videodog/errors"
	"github.com/ArmandoArias/ia-videodog/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/sirupsen/logrus"
)

const (
	keyTitle1  = "Título Opción 1"
	keyTitle2  = "Título Opción 2"
	keyTitle3  = "Título Opción 3"
	keySummary = "Resumen"

	// missingField is stored when the model reply lacks an expected key.
	missingField = "N/A"
)

const promptTemplate = `Tu tarea es crear tres títulos en español para un video de YouTube dirigido a un público latinoamericano, basados en la transcripción y el título actual que te proporciono. Los títulos deben cumplir con las políticas de YouTube y captar la atención del espectador sin ser clickbait. También proporciona un resumen detallado y atractivo que invite a ver el video completo sin revelar demasiado de la trama.

**Título Actual del Video:** %s
**Transcripción del Video:** %s

Responde únicamente con un objeto JSON con estas claves:
- "Título Opción 1": un título alineado con la estructura de títulos exitosos del canal, manteniendo la idea central.
- "Título Opción 2": un título intrigante que evoque emociones fuertes sin revelar demasiado.
- "Título Opción 3": el título más creativo y optimizado, breve, con mayúsculas en palabras clave importantes.
- "Resumen": un resumen intrigante, detallado y atractivo.`

type bedrockAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type Config struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
}

// Generator produces title/summary suggestions with a single model call.
type Generator struct {
	api bedrockAPI
	cfg Config
	log *logrus.Logger
}

func NewGenerator(api bedrockAPI, cfg Config, log *logrus.Logger) *Generator {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	return &Generator{api: api, cfg: cfg, log: log}
}

// Result holds the model reply. When the reply is not a JSON object the
// raw text is kept and Parsed is false; that is a degraded result, not an
// error.
type Result struct {
	Raw    string
	Fields map[string]string
	Parsed bool
}

// Suggestions extracts the four expected fields, defaulting any missing
// one. An unparsed result yields all defaults.
func (r *Result) Suggestions() models.Suggestions {
	return models.Suggestions{
		TitleOption1: r.field(keyTitle1),
		TitleOption2: r.field(keyTitle2),
		TitleOption3: r.field(keyTitle3),
		Summary:      r.field(keySummary),
	}
}

func (r *Result) field(key string) string {
	if value, ok := r.Fields[key]; ok && value != "" {
		return value
	}
	return missingField
}

// Generate sends one request to the model and parses its reply. Provider
// errors are fatal; an unparseable reply degrades to raw text.
func (g *Generator) Generate(ctx context.Context, transcript, currentTitle string) (*Result, error) {
	const op = "Generator.Generate"

	prompt := fmt.Sprintf(promptTemplate, currentTitle, transcript)

	out, err := g.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(g.cfg.ModelID),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: prompt},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(g.cfg.MaxTokens),
			Temperature: aws.Float32(g.cfg.Temperature),
		},
	})
	if err != nil {
		return nil, apperrors.Generation(op, err, "Error al generar sugerencias.")
	}

	text, err := replyText(out)
	if err != nil {
		return nil, apperrors.Generation(op, err, "Error al generar sugerencias.")
	}

	result := parseReply(text)
	if !result.Parsed {
		g.log.WithField("model", g.cfg.ModelID).
			Warn("Model reply was not valid JSON, keeping raw text")
	}
	return result, nil
}

func replyText(out *bedrockruntime.ConverseOutput) (string, error) {
	message, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || len(message.Value.Content) == 0 {
		return "", fmt.Errorf("unexpected converse output shape")
	}
	block, ok := message.Value.Content[0].(*types.ContentBlockMemberText)
	if !ok {
		return "", fmt.Errorf("unexpected content block type")
	}
	return block.Value, nil
}

// parseReply attempts to read the reply as a JSON object, tolerating
// prose around the object the way models sometimes wrap their answers.
func parseReply(text string) *Result {
	trimmed := strings.TrimSpace(text)

	if fields, ok := decodeObject(trimmed); ok {
		return &Result{Raw: text, Fields: fields, Parsed: true}
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		if fields, ok := decodeObject(trimmed[start : end+1]); ok {
			return &Result{Raw: text, Fields: fields, Parsed: true}
		}
	}

	return &Result{Raw: text, Fields: map[string]string{}, Parsed: false}
}

func decodeObject(raw string) (map[string]string, bool) {
	var untyped map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &untyped); err != nil {
		return nil, false
	}

	fields := make(map[string]string, len(untyped))
	for key, value := range untyped {
		if s, ok := value.(string); ok {
			fields[key] = s
		}
	}
	return fields, true
}
