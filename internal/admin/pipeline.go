// Package admin submits new wallpapers to the backend, one at a time from
// the upload form or in bulk through the backend's provider ingestion.
package admin

import (
	"context"
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/JohnDeved/wallhub/internal/catalog"
	"github.com/JohnDeved/wallhub/internal/client"
	"github.com/JohnDeved/wallhub/internal/model"
	"github.com/JohnDeved/wallhub/internal/notify"
)

const (
	msgUploaded     = "Wallpaper uploaded successfully"
	msgUploadFailed = "Error uploading wallpaper"
	msgBulkDone     = "Wallpapers fetched successfully"
	msgBulkFailed   = "Error fetching wallpapers"
	msgBulkRequired = "Query and device are required"
)

// Backend is the part of the API client the pipeline needs.
type Backend interface {
	UploadWallpaper(ctx context.Context, token string, u client.Upload) (string, error)
	FetchWallpapers(ctx context.Context, query string, device model.Device) (string, error)
}

// TokenSource yields the current bearer token. It is consulted on every
// submission so a token stored after startup is picked up.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed TokenSource.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// Refresher is the catalog the pipeline reloads after ingestion.
type Refresher interface {
	Reload(ctx context.Context) (catalog.Catalog, error)
	Categories() []string
}

// ManualRequest is the upload form. Category may be the CreateNewCategory
// sentinel, in which case NewCategory names the category to create.
type ManualRequest struct {
	Name        string       `validate:"required"`
	Description string       `validate:"required"`
	Device      model.Device `validate:"required,oneof=pc mobile"`
	Category    string       `validate:"required"`
	NewCategory string
	ImageName   string `validate:"required"`
	Image       io.Reader
}

// BulkRequest asks the backend to ingest provider images.
type BulkRequest struct {
	Query  string       `validate:"required"`
	Device model.Device `validate:"required,oneof=pc mobile"`
}

// Pipeline validates and submits admin requests. It never inserts into the
// local catalog; the backend stays authoritative and a reload follows.
type Pipeline struct {
	backend  Backend
	tokens   TokenSource
	catalog  Refresher
	notifier notify.Notifier
	validate *validator.Validate
	log      zerolog.Logger
}

// New creates a pipeline. A nil notifier discards notifications.
func New(b Backend, tokens TokenSource, r Refresher, n notify.Notifier, log zerolog.Logger) *Pipeline {
	if n == nil {
		n = notify.Discard
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateNewCategory, ManualRequest{})
	return &Pipeline{
		backend:  b,
		tokens:   tokens,
		catalog:  r,
		notifier: n,
		validate: v,
		log:      log.With().Str("component", "admin").Logger(),
	}
}

func validateNewCategory(sl validator.StructLevel) {
	req := sl.Current().Interface().(ManualRequest)
	if req.Category != model.CreateNewCategory {
		return
	}
	name := strings.TrimSpace(req.NewCategory)
	switch {
	case name == "":
		sl.ReportError(req.NewCategory, "NewCategory", "NewCategory", "required_new", "")
	case name == model.CreateNewCategory:
		sl.ReportError(req.NewCategory, "NewCategory", "NewCategory", "reserved", "")
	}
}

// Categories returns the form's category choices: the known categories
// followed by the sentinel.
func (p *Pipeline) Categories() []string {
	var names []string
	if p.catalog != nil {
		names = p.catalog.Categories()
	}
	return append(names, model.CreateNewCategory)
}

// SubmitManual uploads one wallpaper and returns the server's message.
func (p *Pipeline) SubmitManual(ctx context.Context, req ManualRequest) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.Device = canonicalDevice(req.Device)
	req.Category = strings.TrimSpace(req.Category)
	req.NewCategory = strings.TrimSpace(req.NewCategory)

	if err := p.check(req); err != nil {
		p.fail(err.Error())
		return "", err
	}
	if req.Category != model.CreateNewCategory {
		req.NewCategory = ""
	}

	token, err := p.tokens.Token(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("reading admin token")
		p.fail(msgUploadFailed)
		return "", errors.Wrap(err, "reading admin token")
	}
	if token == "" {
		p.log.Warn().Msg("submitting upload without a stored token")
	}

	msg, err := p.backend.UploadWallpaper(ctx, token, client.Upload{
		Name:        req.Name,
		Description: req.Description,
		Device:      req.Device,
		Category:    req.Category,
		NewCategory: req.NewCategory,
		ImageName:   req.ImageName,
		Image:       req.Image,
	})
	if err != nil {
		p.log.Error().Err(err).Str("name", req.Name).Msg("upload failed")
		p.fail(msgUploadFailed)
		return "", err
	}
	if msg == "" {
		msg = msgUploaded
	}
	p.log.Info().Str("name", req.Name).Str("category", req.Category).Str("new_category", req.NewCategory).Msg("wallpaper uploaded")
	p.notifier.Notify(notify.Notification{Level: notify.Success, Message: msg})

	if req.Category == model.CreateNewCategory {
		p.refresh(ctx)
	}
	return msg, nil
}

// SubmitBulk asks the backend to ingest provider images for query and
// device, then reloads the catalog.
func (p *Pipeline) SubmitBulk(ctx context.Context, req BulkRequest) (string, error) {
	req.Query = strings.TrimSpace(req.Query)
	req.Device = canonicalDevice(req.Device)

	if err := p.validate.Struct(req); err != nil {
		verr := &model.ValidationError{Reason: msgBulkRequired}
		p.fail(verr.Error())
		return "", verr
	}

	msg, err := p.backend.FetchWallpapers(ctx, req.Query, req.Device)
	if err != nil {
		p.log.Error().Err(err).Str("query", req.Query).Msg("bulk ingestion failed")
		p.fail(msgBulkFailed)
		return "", err
	}
	if msg == "" {
		msg = msgBulkDone
	}
	p.log.Info().Str("query", req.Query).Str("device", string(req.Device)).Msg("bulk ingestion accepted")
	p.notifier.Notify(notify.Notification{Level: notify.Success, Message: msg})
	p.refresh(ctx)
	return msg, nil
}

// canonicalDevice maps any spelling of a known device to its canonical
// value. Unknown devices are returned trimmed so validation rejects them.
func canonicalDevice(d model.Device) model.Device {
	if known, ok := model.ParseDevice(string(d)); ok {
		return known
	}
	return model.Device(strings.TrimSpace(string(d)))
}

func (p *Pipeline) refresh(ctx context.Context) {
	if p.catalog == nil {
		return
	}
	if _, err := p.catalog.Reload(ctx); err != nil {
		if errors.Is(err, catalog.ErrStale) {
			p.log.Debug().Msg("post-ingestion reload superseded by a newer load")
			return
		}
		p.log.Warn().Err(err).Msg("reloading catalog after ingestion")
	}
}

func (p *Pipeline) fail(msg string) {
	p.notifier.Notify(notify.Notification{Level: notify.Failure, Message: msg})
}

// check validates req and converts the first failure into a
// *model.ValidationError.
func (p *Pipeline) check(req ManualRequest) error {
	err := p.validate.Struct(req)
	if err == nil {
		if req.Image == nil {
			return &model.ValidationError{Field: "image", Reason: "is required"}
		}
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &model.ValidationError{Reason: err.Error()}
	}
	fe := verrs[0]
	return &model.ValidationError{Field: fieldLabel(fe.Field()), Reason: reason(fe)}
}

func fieldLabel(field string) string {
	switch field {
	case "NewCategory":
		return "new category"
	case "ImageName", "Image":
		return "image"
	default:
		return strings.ToLower(field)
	}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "required_new":
		return "is required when creating a category"
	case "reserved":
		return "cannot be " + model.CreateNewCategory
	default:
		return "is invalid"
	}
}
