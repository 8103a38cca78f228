package reporting

import (
	"context"
	"maps"
	"strconv"
	"strings"
	"time"
)

type reportingMetaContextKey struct{}

// ReportingMeta is attached to every event reported from a request
type ReportingMeta struct {
	tags      map[string]string
	extras    map[string]string
	userID    string
	startedAt time.Time
}

func (m ReportingMeta) clone() ReportingMeta {
	tags := maps.Clone(m.tags)
	if tags == nil {
		tags = make(map[string]string)
	}
	extras := maps.Clone(m.extras)
	if extras == nil {
		extras = make(map[string]string)
	}
	return ReportingMeta{
		tags:      tags,
		extras:    extras,
		userID:    m.userID,
		startedAt: m.startedAt,
	}
}

// MetaFromContext returns a copy of the meta in ctx that is safe to modify
func MetaFromContext(ctx context.Context) ReportingMeta {
	meta, _ := ctx.Value(reportingMetaContextKey{}).(ReportingMeta)
	return meta.clone()
}

func updateMeta(ctx context.Context, update func(meta *ReportingMeta)) context.Context {
	meta := MetaFromContext(ctx)
	update(&meta)
	return context.WithValue(ctx, reportingMetaContextKey{}, meta)
}

func setStartedAtInContext(ctx context.Context, startedAt time.Time) context.Context {
	return updateMeta(ctx, func(meta *ReportingMeta) {
		meta.startedAt = startedAt
	})
}

func AddExtrasToContext(ctx context.Context, extras map[string]string) context.Context {
	return updateMeta(ctx, func(meta *ReportingMeta) {
		maps.Copy(meta.extras, extras)
	})
}

func AddTagsToContext(ctx context.Context, tags map[string]string) context.Context {
	return updateMeta(ctx, func(meta *ReportingMeta) {
		maps.Copy(meta.tags, tags)
	})
}

// AddSymbolsToContext records the requested symbols as an extra and their count as a tag.
// Symbols are too high cardinality to tag on directly.
func AddSymbolsToContext(ctx context.Context, symbols []string) context.Context {
	return updateMeta(ctx, func(meta *ReportingMeta) {
		meta.extras["symbols"] = strings.Join(symbols, ",")
		meta.tags["symbolCount"] = strconv.Itoa(len(symbols))
	})
}

func SetUserIDInContext(ctx context.Context, userID string) context.Context {
	return updateMeta(ctx, func(meta *ReportingMeta) {
		meta.userID = userID
	})
}
