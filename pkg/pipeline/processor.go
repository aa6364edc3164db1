package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"catalog-ops/pkg/content"
	"catalog-ops/pkg/domain"
	"catalog-ops/pkg/logger"
	"catalog-ops/pkg/resolver"
)

// Labels of the image slots of an entry
const (
	LabelFeatured = "featured"
	LabelMain     = "main"
)

// ScreenshotLabel returns the label of screenshot idx
func ScreenshotLabel(idx int) string {
	return fmt.Sprintf("screenshot_%d", idx)
}

// ImageProcessor implements EntryProcessor by resolving every image of an
// entry and replacing its URL with the hosted copy
type ImageProcessor struct {
	resolver  ImageResolver
	publisher Publisher
}

// NewImageProcessor creates a new image processor
func NewImageProcessor(res ImageResolver, pub Publisher) *ImageProcessor {
	return &ImageProcessor{
		resolver:  res,
		publisher: pub,
	}
}

// ProcessEntry rehosts featured_image, image and movie_screenshots under name.
// An empty name falls back to the entry title.
// A field keeps its original value when no hosted URL could be produced.
func (p *ImageProcessor) ProcessEntry(ctx context.Context, entry domain.Entry, name string) (domain.Entry, EntryReport, error) {
	var report EntryReport
	if p.resolver == nil || p.publisher == nil {
		return nil, report, fmt.Errorf("resolver and publisher must be set")
	}

	updated := entry.Clone()
	title := name
	if title == "" {
		title = entry.Title()
	}

	for _, slot := range []struct{ field, label string }{
		{domain.FieldFeaturedImage, LabelFeatured},
		{domain.FieldImage, LabelMain},
	} {
		src := entry.String(slot.field)
		if src == "" {
			continue
		}
		hosted, err := p.host(ctx, src, title, slot.label, 0, &report)
		if err != nil {
			return nil, report, err
		}
		if hosted != "" {
			updated[slot.field] = hosted
			report.Fields = append(report.Fields, slot.field)
		}
	}

	if markup := entry.Screenshots(); markup != "" {
		var hostedURLs []string
		idx := 0
		for _, src := range content.ExtractImageURLs(markup) {
			if resolver.ValidateURL(src) != nil {
				continue
			}
			hosted, err := p.host(ctx, src, title, ScreenshotLabel(idx), idx, &report)
			if err != nil {
				return nil, report, err
			}
			if hosted != "" {
				hostedURLs = append(hostedURLs, hosted)
			}
			idx++
		}
		if len(hostedURLs) > 0 {
			updated[domain.FieldScreenshots] = content.RenderImgTags(hostedURLs)
			report.Fields = append(report.Fields, domain.FieldScreenshots)
		}
	}

	return updated, report, nil
}

// host resolves and publishes one image. It returns "" when the image could
// not be hosted; an error only when ctx is done.
func (p *ImageProcessor) host(ctx context.Context, src, title, label string, index int, report *EntryReport) (string, error) {
	log := logger.Log.WithFields(logrus.Fields{"title": title, "label": label})

	res := p.resolver.Resolve(ctx, src, title, label, index)
	report.resolved(res.Status)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !res.OK() {
		log.WithError(res.Err).Warnf("Image not resolved (%s)", res.Status)
		return "", nil
	}

	pub := p.publisher.Publish(ctx, res.Path, title, label)
	report.published(pub)
	if pub.Err != nil {
		log.WithError(pub.Err).Warnf("Image not published (%s)", pub.Status)
		return "", nil
	}
	log.Infof("Updated %s image URL", label)
	return pub.Asset.PublicURL, nil
}
