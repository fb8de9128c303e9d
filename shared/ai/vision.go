package ai

import (
	"context"
	"fmt"
	"strings"

	"hook-screener/internal/models"

	"google.golang.org/genai"
)

// Vision answers the per-frame questions the screening pipeline asks.
type Vision struct {
	client *Client
}

func NewVision(client *Client) *Vision {
	return &Vision{client: client}
}

func framePart(frame models.Frame) *genai.Part {
	if len(frame.Data) > 0 {
		mime := frame.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		return genai.NewPartFromBytes(frame.Data, mime)
	}
	mime := frame.MIMEType
	if mime == "" {
		mime = "video/mp4"
	}
	return genai.NewPartFromURI(frame.VideoURL, mime)
}

func frameLocation(frame models.Frame) string {
	if len(frame.Data) > 0 {
		return "in this image"
	}
	return fmt.Sprintf("at %s into the video", formatOffset(frame))
}

func formatOffset(frame models.Frame) string {
	secs := int(frame.Offset.Seconds())
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// ExtractText returns the on-screen text of one frame. A refusal is returned
// as text; the caller decides whether to retry.
func (v *Vision) ExtractText(ctx context.Context, frame models.Frame) (string, error) {
	prompt := fmt.Sprintf(`Read the text overlaid on the video %s.
Return only the overlaid text exactly as written, on one line, without quotes or commentary.
If there is no overlaid text, return an empty answer.`, frameLocation(frame))

	text, err := v.client.generate(ctx, false, genai.NewPartFromText(prompt), framePart(frame))
	if err != nil {
		return "", fmt.Errorf("failed to extract text %s: %w", frameLocation(frame), err)
	}
	return strings.Trim(text, "\"“”"), nil
}

func (v *Vision) HasFace(ctx context.Context, frame models.Frame) (bool, error) {
	prompt := fmt.Sprintf(`Is a human face clearly visible %s?

Please answer in the following JSON format:
{
  "face": boolean
}`, frameLocation(frame))

	var answer struct {
		Face bool `json:"face"`
	}
	if err := v.client.generateJSON(ctx, &answer, genai.NewPartFromText(prompt), framePart(frame)); err != nil {
		return false, fmt.Errorf("failed to detect face %s: %w", frameLocation(frame), err)
	}
	return answer.Face, nil
}

// DetectAppFootage asks whether the frames show a phone app being used.
func (v *Vision) DetectAppFootage(ctx context.Context, frames []models.Frame) (models.AppFootage, error) {
	if len(frames) == 0 {
		return models.AppFootage{}, fmt.Errorf("no frames to inspect")
	}

	locations := make([]string, len(frames))
	parts := []*genai.Part{nil}
	for i, f := range frames {
		locations[i] = frameLocation(f)
		if len(f.Data) > 0 || i == 0 {
			parts = append(parts, framePart(f))
		}
	}

	parts[0] = genai.NewPartFromText(fmt.Sprintf(`Look at the video %s.
Does it show a mobile app being demonstrated (a phone screen or screen recording of an app interface)?

Please answer in the following JSON format:
{
  "detected": boolean,
  "confidence": number (0-1),
  "description": "short description of what is shown"
}`, strings.Join(locations, ", ")))

	var answer struct {
		Detected    bool     `json:"detected"`
		Confidence  *float64 `json:"confidence"`
		Description string   `json:"description"`
	}
	if err := v.client.generateJSON(ctx, &answer, parts...); err != nil {
		return models.AppFootage{}, fmt.Errorf("failed to detect app footage: %w", err)
	}
	return models.AppFootage{
		Detected:    answer.Detected,
		Confidence:  answer.Confidence,
		Description: answer.Description,
	}, nil
}
