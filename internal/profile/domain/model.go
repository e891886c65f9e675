package domain

import "encoding/json"

// Limits enforced on every draft mutation.
const (
	MaxFeaturedProjects = 3
	MaxBlogPosts        = 3
	MaxCertificates     = 4
	MaxGalleryPhotos    = 7
	MaxVideoWindowSec   = 180
)

// Profile is the canonical identity-scoped document that gets published
// to the content-addressed store and registered on-chain.
type Profile struct {
	Name              string    `json:"name"`
	Bio               string    `json:"bio"`
	GithubHandle      string    `json:"githubHandle"`
	ActiveAnimationID string    `json:"activeAnimationId"`
	Projects          []Project `json:"projects"`
	Activity          Activity  `json:"activity"`
	ImageRef          MediaRef  `json:"imageRef,omitempty"`
	ReadmeRef         MediaRef  `json:"readmeRef,omitempty"`
	ReadmeName        string    `json:"readmeName,omitempty"`
}

type Activity struct {
	BlogPosts    []BlogPost    `json:"blogPosts"`
	Certificates []Certificate `json:"certificates"`
	SocialLinks  []SocialLink  `json:"socialLinks"`
	ContactEmail string        `json:"contactEmail,omitempty"`
	ConnectMsg   string        `json:"connectMsg,omitempty"`
}

type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ProjectURL  string     `json:"projectUrl,omitempty"`
	Tags        []string   `json:"tags"`
	IsFeatured  bool       `json:"isFeatured"`
	Gallery     []MediaRef `json:"gallery"`
	VideoRef    MediaRef   `json:"videoRef,omitempty"`
	VideoThumb  MediaRef   `json:"videoThumbnailRef,omitempty"`
	VideoStart  float64    `json:"videoStartTime,omitempty"`
	VideoEnd    float64    `json:"videoEndTime,omitempty"`

	// Legacy single-media fields kept for older published documents.
	MediaPreview MediaRef `json:"mediaPreview,omitempty"`
	MediaRef     MediaRef `json:"mediaIpfsUrl,omitempty"`
}

type BlogPost struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content,omitempty"`
	CoverImage  MediaRef `json:"coverImageRef,omitempty"`
}

type Certificate struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	ImageRef      MediaRef `json:"imageRef,omitempty"`
	CredentialURL string   `json:"credentialUrl,omitempty"`
}

type SocialLink struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// AnimationExtension is a globally installed (not identity-scoped)
// animation descriptor; ID is the source repo URL.
type AnimationExtension struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

const DefaultAnimationID = "dino"

// DefaultProfile is the hydration fallback when neither the cache nor
// the chain pointer yields a document.
func DefaultProfile() *Profile {
	return &Profile{
		ActiveAnimationID: DefaultAnimationID,
		Projects:          []Project{},
		Activity: Activity{
			BlogPosts:    []BlogPost{},
			Certificates: []Certificate{},
			SocialLinks:  []SocialLink{},
		},
	}
}

// Clone returns a deep copy via JSON round-trip. Profiles are plain
// data, so this is safe and keeps copy semantics in one place.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		// Profile contains only marshalable fields.
		panic("profile: clone marshal: " + err.Error())
	}
	out := &Profile{}
	if err := json.Unmarshal(raw, out); err != nil {
		panic("profile: clone unmarshal: " + err.Error())
	}
	return out
}

// StripInline returns a copy with every inline-pending media payload
// replaced by an empty ref. This is the only shape allowed into the
// draft store and the shape used for change comparison.
func (p *Profile) StripInline() *Profile {
	out := p.Clone()
	if out == nil {
		return nil
	}
	out.ImageRef = out.ImageRef.Stripped()
	out.ReadmeRef = out.ReadmeRef.Stripped()
	for i := range out.Projects {
		pr := &out.Projects[i]
		pr.VideoRef = pr.VideoRef.Stripped()
		pr.VideoThumb = pr.VideoThumb.Stripped()
		pr.MediaPreview = pr.MediaPreview.Stripped()
		pr.MediaRef = pr.MediaRef.Stripped()
		kept := pr.Gallery[:0]
		for _, g := range pr.Gallery {
			if !g.IsInline() {
				kept = append(kept, g)
			}
		}
		pr.Gallery = kept
	}
	for i := range out.Activity.BlogPosts {
		out.Activity.BlogPosts[i].CoverImage = out.Activity.BlogPosts[i].CoverImage.Stripped()
	}
	for i := range out.Activity.Certificates {
		out.Activity.Certificates[i].ImageRef = out.Activity.Certificates[i].ImageRef.Stripped()
	}
	return out
}

// HasInlineMedia reports whether any media field still holds an
// un-uploaded payload. A materialized profile must return false.
func (p *Profile) HasInlineMedia() bool {
	if p.ImageRef.IsInline() || p.ReadmeRef.IsInline() {
		return true
	}
	for _, pr := range p.Projects {
		if pr.VideoRef.IsInline() || pr.VideoThumb.IsInline() ||
			pr.MediaPreview.IsInline() || pr.MediaRef.IsInline() {
			return true
		}
		for _, g := range pr.Gallery {
			if g.IsInline() {
				return true
			}
		}
	}
	for _, b := range p.Activity.BlogPosts {
		if b.CoverImage.IsInline() {
			return true
		}
	}
	for _, c := range p.Activity.Certificates {
		if c.ImageRef.IsInline() {
			return true
		}
	}
	return false
}
