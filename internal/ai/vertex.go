package ai

import (
	"context"
	"fmt"
	"strings"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// VertexConfig holds the settings for the hosted backend.
type VertexConfig struct {
	ProjectID       string
	Region          string
	GenerationModel string
	EmbeddingModel  string
}

// Vertex is the hosted backend: Gemini generation through the Vertex AI genai
// SDK and embeddings through the prediction service.
type Vertex struct {
	genClient  *genai.Client
	genModel   *genai.GenerativeModel
	prediction *aiplatform.PredictionClient
	config     VertexConfig
}

// NewVertex creates a backend bound to the given project and region.
func NewVertex(ctx context.Context, config VertexConfig) (*Vertex, error) {
	if config.ProjectID == "" || config.Region == "" {
		return nil, fmt.Errorf("NewVertex: projectID and region cannot be empty")
	}

	genClient, err := genai.NewClient(ctx, config.ProjectID, config.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	prediction, err := aiplatform.NewPredictionClient(ctx,
		option.WithEndpoint(fmt.Sprintf("%s-aiplatform.googleapis.com:443", config.Region)))
	if err != nil {
		_ = genClient.Close()
		return nil, fmt.Errorf("aiplatform.NewPredictionClient: %w", err)
	}

	return &Vertex{
		genClient:  genClient,
		genModel:   genClient.GenerativeModel(config.GenerationModel),
		prediction: prediction,
		config:     config,
	}, nil
}

// Generate returns the concatenated text parts of the model response.
func (v *Vertex) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := v.genModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", generationError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &GenerationError{Message: "model returned no candidates"}
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(out.String()), nil
}

// Embed requests an embedding with the target output dimensionality and
// normalizes the result defensively.
func (v *Vertex) Embed(ctx context.Context, text string) ([]float32, error) {
	instance, err := structpb.NewValue(map[string]any{"content": text})
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	params, err := structpb.NewValue(map[string]any{"outputDimensionality": targetDim})
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}

	endpoint := fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s",
		v.config.ProjectID, v.config.Region, v.config.EmbeddingModel)
	resp, err := v.prediction.Predict(ctx, &aiplatformpb.PredictRequest{
		Endpoint:   endpoint,
		Instances:  []*structpb.Value{instance},
		Parameters: params,
	})
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(resp.Predictions) == 0 {
		return nil, &EmbeddingError{Err: fmt.Errorf("no predictions returned")}
	}

	values := resp.Predictions[0].GetStructValue().
		GetFields()["embeddings"].GetStructValue().
		GetFields()["values"].GetListValue().GetValues()
	if len(values) == 0 {
		return nil, &EmbeddingError{Err: fmt.Errorf("no embedding values in prediction")}
	}

	vec := make([]float32, 0, len(values))
	for _, val := range values {
		vec = append(vec, float32(val.GetNumberValue()))
	}
	return NormalizeEmbedding(vec, targetDim), nil
}

// Close releases both underlying clients.
func (v *Vertex) Close() error {
	genErr := v.genClient.Close()
	if err := v.prediction.Close(); err != nil {
		return err
	}
	return genErr
}

// generationError converts a backend error into a GenerationError, surfacing
// the suggested retry delay when the status carries RetryInfo.
func generationError(err error) *GenerationError {
	ge := &GenerationError{Message: err.Error()}
	if s, ok := status.FromError(err); ok {
		if msg := s.Message(); msg != "" {
			ge.Message = msg
		}
		for _, detail := range s.Details() {
			if ri, ok := detail.(*errdetails.RetryInfo); ok && ri.GetRetryDelay() != nil {
				ge.RetryAfter = ri.GetRetryDelay().AsDuration()
			}
		}
	}
	return ge
}
