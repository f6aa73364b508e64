package handler

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"signdocs/internal/http/middleware"
	"signdocs/internal/model"
	"signdocs/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// stay free of business logic; they parse input, call the service, and
// shape the response. Errors bubble to the global ErrorHandler.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService, jwtSecret string) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Public by design: the storage name is an unguessable generated token
	// and acts as the capability to fetch the blob.
	app.Get("/files/:filename", ServeFile(docSvc))

	auth := middleware.Auth(jwtSecret)
	app.Post("/upload", auth, UploadDocument(docSvc))
	app.Get("/documents", auth, ListDocuments(docSvc))
	app.Get("/documents/:id", auth, GetDocument(docSvc))
	app.Post("/documents/:id/sign", auth, SignDocument(docSvc))
	app.Get("/documents/:id/file", auth, ServeDocumentFile(docSvc))
	app.Delete("/documents/:id", auth, DeleteDocument(docSvc))
}

// HealthCheck reports readiness by pinging the database.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "Dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a trivial liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// UploadDocument handles multipart uploads (field name: document).
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("document")
		if err != nil {
			return service.ErrNoFile
		}

		f, err := fh.Open()
		if err != nil {
			return service.Validation("Cannot open uploaded file")
		}
		defer f.Close()

		mimetype := fh.Header.Get(fiber.HeaderContentType)
		if mimetype == "" {
			mimetype = "application/octet-stream"
		}

		doc, err := docSvc.Upload(c.UserContext(), middleware.UserID(c), f, fh.Filename, mimetype, fh.Size)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":  "File uploaded successfully",
			"document": doc,
		})
	}
}

// ListDocuments returns the caller's documents, newest first.
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := docSvc.List(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(docs)
	}
}

// GetDocument returns a single document owned by the caller.
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		// A malformed id can never match a record; don't reveal more.
		if _, err := uuid.Parse(id); err != nil {
			return service.ErrDocumentNotFound
		}
		doc, err := docSvc.Get(c.UserContext(), id, middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(doc)
	}
}

// annotationPayload is the wire shape of one overlay element. Coordinates
// are pointers so that absent fields are distinguishable from zero values.
type annotationPayload struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
	Kind   string   `json:"kind"`
	Text   string   `json:"text"`
}

func (p annotationPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.X, validation.NotNil),
		validation.Field(&p.Y, validation.NotNil),
		validation.Field(&p.Width, validation.NotNil),
		validation.Field(&p.Height, validation.NotNil),
		validation.Field(&p.Kind, validation.Required),
	)
}

type signRequest struct {
	Signatures []annotationPayload `json:"signatures"`
}

// SignDocument replaces the document's annotation list and marks it signed.
func SignDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return service.ErrDocumentNotFound
		}

		var req signRequest
		if err := c.BodyParser(&req); err != nil {
			return service.ErrInvalidSignature
		}
		if req.Signatures == nil {
			return service.ErrInvalidSignature
		}

		annotations := make([]model.Annotation, 0, len(req.Signatures))
		for _, p := range req.Signatures {
			if err := p.Validate(); err != nil {
				return service.ErrInvalidSignature
			}
			annotations = append(annotations, model.Annotation{
				X:      *p.X,
				Y:      *p.Y,
				Width:  *p.Width,
				Height: *p.Height,
				Kind:   model.AnnotationKind(p.Kind),
				Text:   p.Text,
			})
		}

		doc, err := docSvc.Sign(c.UserContext(), id, middleware.UserID(c), annotations)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"message":  "Document signed successfully",
			"document": doc,
		})
	}
}

// DeleteDocument removes a document and its blob.
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return service.ErrDocumentNotFound
		}
		if err := docSvc.Delete(c.UserContext(), id, middleware.UserID(c)); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "Document deleted successfully"})
	}
}

// fileHeaders sets the common headers for blob responses so the file can be
// embedded by a viewer UI on another origin and cached aggressively.
func fileHeaders(c *fiber.Ctx, contentType string) {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	c.Set("Cross-Origin-Resource-Policy", "cross-origin")
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000")
}

// ServeFile streams a blob by its raw storage name.
func ServeFile(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filename := c.Params("filename")
		rc, info, err := docSvc.OpenFile(c.UserContext(), filename)
		if err != nil {
			return err
		}
		fileHeaders(c, service.ContentTypeByExt(filename))
		return c.SendStream(rc, int(info.Size))
	}
}

// ServeDocumentFile streams the blob behind a document the caller owns,
// presenting it under the user's original filename.
func ServeDocumentFile(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return service.ErrDocumentNotFound
		}
		rc, info, doc, err := docSvc.OpenDocumentFile(c.UserContext(), id, middleware.UserID(c))
		if err != nil {
			return err
		}
		fileHeaders(c, service.ContentTypeByExt(doc.StorageName))
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", doc.OriginalName))
		return c.SendStream(rc, int(info.Size))
	}
}
