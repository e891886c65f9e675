package domain

import "errors"

var (
	ErrTooManyFeatured     = errors.New("at most 3 projects can be featured")
	ErrTooManyBlogPosts    = errors.New("at most 3 blog posts allowed")
	ErrTooManyCertificates = errors.New("at most 4 certificates allowed")
	ErrTooManyGalleryItems = errors.New("at most 7 gallery photos allowed per project")
	ErrVideoWindowTooLong  = errors.New("video trim window exceeds 3 minutes")
	ErrInvalidVideoWindow  = errors.New("video trim window end precedes start")
)
