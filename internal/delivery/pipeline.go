// Package delivery appends accepted text to the target document and owns
// the background side of the clipboard flow.
package delivery

import (
	"context"

	"github.com/MrSnakeDoc/clipdoc/internal/docs"
	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/logger"
)

// DocumentWriter is the remote document API.
type DocumentWriter interface {
	InsertText(ctx context.Context, token, documentID, text string, index int) (*docs.BatchUpdateResponse, error)
}

// Credentials hands out a current bearer token and drops it once rejected.
type Credentials interface {
	AccessToken(ctx context.Context) (string, bool)
	Invalidate(ctx context.Context)
}

// Pipeline turns one accepted text into exactly one document write.
type Pipeline struct {
	writer DocumentWriter
	creds  Credentials
	logger logger.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(writer DocumentWriter, creds Credentials, log logger.Logger) *Pipeline {
	return &Pipeline{writer: writer, creds: creds, logger: log}
}

// AppendText inserts text at the document anchor, prefixed by a source
// header when both url and title are given.
//
// Preconditions are checked before any network call. A credential failure
// from the API invalidates the session so the next attempt asks for a new
// grant.
func (p *Pipeline) AppendText(ctx context.Context, documentID, text, url, title string) error {
	token, authorized := p.creds.AccessToken(ctx)
	req, err := domain.NewDeliveryRequest(authorized, documentID, text, url, title)
	if err != nil {
		return err
	}

	log := p.logger.With(
		logger.String("doc_id", req.DocumentID),
		logger.String("text", domain.Preview(req.Text)),
		logger.Bool("with_source", req.HasSource()))
	log.Debug("appending to document")

	if _, err := p.writer.InsertText(ctx, token, req.DocumentID, req.ComposeBlock(), domain.AnchorIndex); err != nil {
		log.Error("error appending to document", logger.Error(err))
		if domain.IsCredentialError(err) {
			p.creds.Invalidate(ctx)
		}
		return err
	}

	log.Info("text appended to document")
	return nil
}
