package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mavericksstream/unlock/internal/api"
	"github.com/mavericksstream/unlock/internal/model"
	"github.com/mavericksstream/unlock/internal/status"
)

var (
	ErrNotLoggedIn   = errors.New("not logged in")
	ErrInvalidUpload = errors.New("invalid upload form")
)

type UploadService struct {
	client   *api.Client
	validate *validator.Validate
}

func NewUploadService(client *api.Client) *UploadService {
	return &UploadService{
		client:   client,
		validate: validator.New(),
	}
}

// Upload submits the video form. The session token must be present before anything is sent.
func (s *UploadService) Upload(ctx context.Context, form model.VideoUpload) (*model.UploadResult, error) {
	if !s.client.HasToken() {
		return nil, ErrNotLoggedIn
	}

	err := s.validate.Struct(form)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidUpload, err)
	}

	fields := []api.Field{
		{Name: "title", Value: form.Title},
		{Name: "description", Value: form.Description},
		{Name: "is_public", Value: strconv.FormatBool(form.IsPublic)},
		{Name: "is_paid_unlock", Value: strconv.FormatBool(form.IsPaid)},
	}

	price := strings.TrimSpace(form.Price)
	switch {
	case form.IsPaid && price != "":
		fields = append(fields, api.Field{Name: "price", Value: price})
	case form.IsPaid:
		slog.Warn("video marked as paid but no price is set", "title", form.Title)
	}

	var result model.UploadResult
	err = s.client.PostMultipart(ctx, "/videos/upload", fields, "file", form.FilePath, &result)
	if err != nil {
		return nil, err
	}

	slog.Info("video uploaded", "video_id", result.VideoID, "title", form.Title)
	return &result, nil
}

// UploadStatus turns the outcome of Upload into the message shown under the form.
func UploadStatus(result *model.UploadResult, err error) (status.Severity, string) {
	var apiErr *api.APIError
	switch {
	case err == nil:
		msg := result.Message
		if msg == "" {
			msg = "Video uploaded successfully!"
		}
		return status.Success, fmt.Sprintf("Success: %s. Video ID: %d", msg, result.VideoID)

	case errors.Is(err, ErrNotLoggedIn):
		return status.Error, "Error: You are not logged in or your session is invalid. Please log out and log in again to upload videos."

	case errors.Is(err, ErrInvalidUpload):
		return status.Error, "Error: " + validationSummary(err)

	case errors.As(err, &apiErr):
		msg := apiErr.Msg
		if msg == "" {
			msg = "Failed to upload video."
		}
		return status.Error, strings.TrimSpace(fmt.Sprintf("Error: %s %s", msg, apiErr.Message))

	default:
		return status.Error, "Network error: " + err.Error()
	}
}

func validationSummary(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid upload form."
	}

	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, strings.ToLower(fe.Field()))
	}
	return "Missing " + strings.Join(missing, ", ")
}
