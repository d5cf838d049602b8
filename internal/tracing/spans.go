package tracing

// Span names.
const (
	SpanScrollToItem = "scroll.to_item"
	SpanSetCacheKey  = "vlist.set_cache_key"
	SpanPersist      = "registry.persist"
)

// Span attribute keys.
const (
	AttrCacheKey     = "vscroll.cache.key"
	AttrPrevCacheKey = "vscroll.cache.prev_key"
	AttrItemKey      = "vscroll.item.key"
	AttrItemCount    = "vscroll.item.count"
	AttrTargetTop    = "vscroll.scroll.top"
	AttrScrollOffset = "vscroll.scroll.offset"
	AttrIterations   = "vscroll.scroll.iterations"
	AttrPhase        = "vscroll.scroll.phase"
	AttrListID       = "vscroll.list.id"
	AttrSavedCaches  = "vscroll.persist.saved"
	AttrErrorMessage = "error.message"
)

// Span event names.
const (
	EventSeek       = "scroll.seek"
	EventRefine     = "scroll.refine"
	EventNotVisible = "scroll.not_rendered"
)
