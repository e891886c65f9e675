package publish

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/devdash/profile-backend/internal/chain"
	"github.com/devdash/profile-backend/internal/profile/domain"
)

// Media uploads are independent; cap how many run at once so the
// upload endpoint isn't overwhelmed.
const uploadConcurrency = 4

type MediaStore interface {
	AddFile(ctx context.Context, name string, data []byte) (string, error)
	AddJSON(ctx context.Context, name string, v any) (string, error)
}

type SponsoredCommitter interface {
	Commit(ctx context.Context, identity, cid string) (*chain.SponsoredReceipt, error)
}

type WalletCommitter interface {
	Commit(ctx context.Context, identity, cid string) (string, error)
}

type CacheWriter interface {
	Put(ctx context.Context, identity string, p *domain.Profile) error
}

type RetryQueue interface {
	Enqueue(ctx context.Context, identity string, p *domain.Profile) error
}

type CommitPath string

const (
	PathSponsored CommitPath = "sponsored"
	PathWallet    CommitPath = "wallet"
)

type Result struct {
	Profile      *domain.Profile
	MasterCID    string
	TxHash       string
	Path         CommitPath
	RemainingWei *big.Int
}

// Pipeline materializes a draft's media, uploads the master document
// and commits the pointer, sponsored first with a confirmed wallet
// fallback. Steps 1-4 abort atomically; cache sync never fails a
// publish that already committed.
type Pipeline struct {
	media     MediaStore
	sponsored SponsoredCommitter
	wallet    WalletCommitter
	cache     CacheWriter
	retries   RetryQueue
}

func NewPipeline(media MediaStore, sponsored SponsoredCommitter, wallet WalletCommitter, cache CacheWriter, retries RetryQueue) *Pipeline {
	return &Pipeline{
		media:     media,
		sponsored: sponsored,
		wallet:    wallet,
		cache:     cache,
		retries:   retries,
	}
}

// Publish runs the full pipeline over a snapshot copy of the draft.
// confirmFallback carries the user's consent to the wallet-paid path;
// without it an exhausted budget surfaces as *FallbackRequiredError.
func (p *Pipeline) Publish(ctx context.Context, identity string, draft *domain.Profile, confirmFallback bool) (*Result, error) {
	if draft == nil {
		return nil, ErrNothingToCommit
	}

	materialized, err := p.materialize(ctx, draft.Clone())
	if err != nil {
		return nil, err
	}

	// The master document must only ever contain small string
	// references; uploading inline payloads inside it is the rejected
	// design that caused multi-minute publishes.
	if materialized.HasInlineMedia() {
		return nil, &MasterUploadError{Err: errors.New("materialization left inline payloads behind")}
	}

	masterCID, err := p.media.AddJSON(ctx, "profile.json", materialized)
	if err != nil {
		return nil, &MasterUploadError{Err: err}
	}

	result := &Result{Profile: materialized, MasterCID: masterCID}

	receipt, err := p.sponsored.Commit(ctx, identity, masterCID)
	switch {
	case err == nil:
		result.TxHash = receipt.TxHash
		result.Path = PathSponsored
		result.RemainingWei = receipt.RemainingWei

	default:
		var insufficient *chain.InsufficientBudgetError
		if !errors.As(err, &insufficient) {
			return nil, fmt.Errorf("sponsored commit: %w", err)
		}
		if !confirmFallback {
			return nil, &FallbackRequiredError{
				RequiredWei: insufficient.RequiredWei,
				BalanceWei:  insufficient.BalanceWei,
			}
		}
		txHash, werr := p.wallet.Commit(ctx, identity, masterCID)
		if werr != nil {
			return nil, werr
		}
		result.TxHash = txHash
		result.Path = PathWallet
	}

	// The pointer is on-chain; the cache is an optimization. A failed
	// sync is queued for retry, never rolled into a publish failure.
	if err := p.cache.Put(ctx, identity, materialized); err != nil {
		log.Printf("Warning: cache sync for %s failed, queueing retry: %v", identity, err)
		if qerr := p.retries.Enqueue(ctx, identity, materialized); qerr != nil {
			log.Printf("Warning: cache retry enqueue for %s: %v", identity, qerr)
		}
	}

	return result, nil
}

// materialize uploads every inline-pending payload and swaps it for an
// externalized ipfs:// reference. All uploads must succeed; the first
// failure aborts the publish with the offending field named.
func (p *Pipeline) materialize(ctx context.Context, doc *domain.Profile) (*domain.Profile, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)

	upload := func(field, name string, target *domain.MediaRef) {
		ref := *target
		if !ref.IsInline() {
			return
		}
		g.Go(func() error {
			cid, err := p.media.AddFile(gctx, name, ref.Data)
			if err != nil {
				return &MediaUploadError{Field: field, Err: err}
			}
			*target = domain.ExternalRef("ipfs://" + cid)
			return nil
		})
	}

	upload("profile image", "profile-image", &doc.ImageRef)
	readmeName := doc.ReadmeName
	if readmeName == "" {
		readmeName = "README.md"
	}
	upload("readme", readmeName, &doc.ReadmeRef)

	for i := range doc.Projects {
		pr := &doc.Projects[i]
		upload(fmt.Sprintf("project %q video", pr.Name), pr.Name+"-video.mp4", &pr.VideoRef)
		upload(fmt.Sprintf("project %q video thumbnail", pr.Name), pr.Name+"-thumb.png", &pr.VideoThumb)
		for j := range pr.Gallery {
			upload(
				fmt.Sprintf("project %q gallery photo %d", pr.Name, j+1),
				fmt.Sprintf("%s-gal-%d.png", pr.Name, j),
				&pr.Gallery[j],
			)
		}
		// Legacy single-media field: a pending preview externalizes into
		// the media ref slot and the preview itself is dropped.
		if pr.MediaPreview.IsInline() {
			idx := i
			preview := pr.MediaPreview
			name := pr.Name
			g.Go(func() error {
				cid, err := p.media.AddFile(gctx, name+"-media", preview.Data)
				if err != nil {
					return &MediaUploadError{Field: fmt.Sprintf("project %q media", name), Err: err}
				}
				doc.Projects[idx].MediaRef = domain.ExternalRef("ipfs://" + cid)
				doc.Projects[idx].MediaPreview = domain.EmptyRef()
				return nil
			})
		}
	}

	for i := range doc.Activity.BlogPosts {
		b := &doc.Activity.BlogPosts[i]
		name := b.Title
		if name == "" {
			name = "blog-cover"
		}
		upload(fmt.Sprintf("blog post %q cover", b.Title), name, &b.CoverImage)
	}
	for i := range doc.Activity.Certificates {
		cert := &doc.Activity.Certificates[i]
		name := cert.Title
		if name == "" {
			name = "certificate-img"
		}
		upload(fmt.Sprintf("certificate %q image", cert.Title), name, &cert.ImageRef)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return doc, nil
}
