package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brynleigh/reflow-cli/internal/doctext"
	"github.com/brynleigh/reflow-cli/internal/fetcher"
	"github.com/brynleigh/reflow-cli/internal/model"
	"github.com/brynleigh/reflow-cli/pkg/websearch"
)

// rankDocuments orders candidate URLs for fetching: URLs containing ".pdf"
// first, in search order, then the rest, deduplicated and capped at max.
func rankDocuments(results []websearch.Result, max int) []string {
	seen := make(map[string]struct{}, len(results))
	var pdfs, rest []string
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		if strings.Contains(strings.ToLower(r.URL), ".pdf") {
			pdfs = append(pdfs, r.URL)
		} else {
			rest = append(rest, r.URL)
		}
	}
	urls := append(pdfs, rest...)
	if max > 0 && len(urls) > max {
		urls = urls[:max]
	}
	return urls
}

// fetchDocuments downloads the ranked URLs concurrently, preserving rank
// order in the returned slice. A URL that looks like a PDF but lacks the
// "%PDF" magic is rejected; interstitial block pages are the usual cause.
func (p *Pipeline) fetchDocuments(ctx context.Context, urls []string) ([]doctext.Raw, []error) {
	raws := make([]*doctext.Raw, len(urls))
	errs := make([]error, len(urls))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.docLimit())
	for i, u := range urls {
		g.Go(func() error {
			if gCtx.Err() != nil {
				errs[i] = gCtx.Err()
				return nil
			}
			data, contentType, err := p.fetch.Fetch(gCtx, u)
			if err != nil {
				zap.L().Warn("pipeline: fetch failed", zap.String("url", u), zap.Error(err))
				errs[i] = err
				return nil
			}
			if strings.Contains(strings.ToLower(u), ".pdf") && !fetcher.IsPDF(data) {
				zap.L().Warn("pipeline: expected pdf content", zap.String("url", u))
				errs[i] = eris.Errorf("fetch: %s is not a pdf", u)
				return nil
			}
			raws[i] = &doctext.Raw{URL: u, ContentType: contentType, Data: data}
			return nil
		})
	}
	_ = g.Wait()

	var fetched []doctext.Raw
	var failed []error
	for i := range urls {
		if raws[i] != nil {
			fetched = append(fetched, *raws[i])
		} else if errs[i] != nil {
			failed = append(failed, errs[i])
		}
	}
	return fetched, failed
}

// convertDocuments turns raw downloads into plain-text documents, again
// preserving order. Conversion runs concurrently since PDF text extraction
// shells out per document.
func (p *Pipeline) convertDocuments(ctx context.Context, raws []doctext.Raw) ([]model.Document, []error) {
	docs := make([]*model.Document, len(raws))
	errs := make([]error, len(raws))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.docLimit())
	for i, raw := range raws {
		g.Go(func() error {
			if gCtx.Err() != nil {
				errs[i] = gCtx.Err()
				return nil
			}
			text, kind, err := p.convert.Text(gCtx, raw)
			if err != nil {
				zap.L().Warn("pipeline: conversion failed", zap.String("url", raw.URL), zap.Error(err))
				errs[i] = err
				return nil
			}
			docs[i] = &model.Document{URL: raw.URL, Kind: kind, Text: text}
			return nil
		})
	}
	_ = g.Wait()

	var converted []model.Document
	var failed []error
	for i := range raws {
		if docs[i] != nil {
			converted = append(converted, *docs[i])
		} else if errs[i] != nil {
			failed = append(failed, errs[i])
		}
	}
	return converted, failed
}
