package domain

// AnchorIndex is where every delivery is inserted in the target document.
// Repeated deliveries therefore read last-delivered-first.
const AnchorIndex = 1

// DeliveryRequest is a candidate text bound to a target document.
type DeliveryRequest struct {
	DocumentID  string
	Text        string
	SourceURL   string
	SourceTitle string
}

// NewDeliveryRequest builds a request only for an authorized session and a
// configured document.
func NewDeliveryRequest(authorized bool, documentID, text, sourceURL, sourceTitle string) (DeliveryRequest, error) {
	if !authorized {
		return DeliveryRequest{}, ErrNotAuthorized
	}
	if documentID == "" {
		return DeliveryRequest{}, ErrNoTargetConfigured
	}
	return DeliveryRequest{
		DocumentID:  documentID,
		Text:        text,
		SourceURL:   sourceURL,
		SourceTitle: sourceTitle,
	}, nil
}

// HasSource reports whether both source fields are present.
func (r DeliveryRequest) HasSource() bool {
	return r.SourceURL != "" && r.SourceTitle != ""
}

// ComposeBlock returns the text inserted at the anchor.
func (r DeliveryRequest) ComposeBlock() string {
	block := ""
	if r.HasSource() {
		block = "Source: " + r.SourceTitle + "\n" + "URL: " + r.SourceURL + "\n\n"
	}
	return block + r.Text + "\n\n"
}
