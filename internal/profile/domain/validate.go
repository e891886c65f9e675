package domain

// Validate checks the structural limits on a profile. Callers merge
// into a copy first so a failed validation never mutates live state.
func (p *Profile) Validate() error {
	featured := 0
	for _, pr := range p.Projects {
		if pr.IsFeatured {
			featured++
		}
		if len(pr.Gallery) > MaxGalleryPhotos {
			return ErrTooManyGalleryItems
		}
		if pr.VideoEnd != 0 || pr.VideoStart != 0 {
			if pr.VideoEnd < pr.VideoStart {
				return ErrInvalidVideoWindow
			}
			if pr.VideoEnd-pr.VideoStart > MaxVideoWindowSec {
				return ErrVideoWindowTooLong
			}
		}
	}
	if featured > MaxFeaturedProjects {
		return ErrTooManyFeatured
	}
	if len(p.Activity.BlogPosts) > MaxBlogPosts {
		return ErrTooManyBlogPosts
	}
	if len(p.Activity.Certificates) > MaxCertificates {
		return ErrTooManyCertificates
	}
	return nil
}
