package domain

// MediaKind discriminates the three states a media field can be in.
type MediaKind string

const (
	MediaEmpty MediaKind = "empty"
	// MediaInline holds a locally-supplied payload that has not been
	// uploaded yet. Never valid in a canonical profile.
	MediaInline   MediaKind = "inline"
	MediaExternal MediaKind = "external"
)

// MediaRef is a tagged reference to a binary asset. Exactly one of the
// payload fields is meaningful for a given kind: URI for external refs,
// Data+Mime for inline payloads, neither for empty.
type MediaRef struct {
	Kind MediaKind `json:"kind"`
	URI  string    `json:"uri,omitempty"`
	Data []byte    `json:"data,omitempty"`
	Mime string    `json:"mime,omitempty"`
}

func EmptyRef() MediaRef {
	return MediaRef{Kind: MediaEmpty}
}

func InlineRef(data []byte, mime string) MediaRef {
	return MediaRef{Kind: MediaInline, Data: data, Mime: mime}
}

func ExternalRef(uri string) MediaRef {
	if uri == "" {
		return EmptyRef()
	}
	return MediaRef{Kind: MediaExternal, URI: uri}
}

func (m MediaRef) IsEmpty() bool {
	return m.Kind == MediaEmpty || m.Kind == ""
}

func (m MediaRef) IsInline() bool {
	return m.Kind == MediaInline
}

func (m MediaRef) IsExternal() bool {
	return m.Kind == MediaExternal
}

// Stripped returns the storable form of the reference: inline payloads
// collapse to empty, everything else passes through.
func (m MediaRef) Stripped() MediaRef {
	if m.IsInline() {
		return EmptyRef()
	}
	return m
}
