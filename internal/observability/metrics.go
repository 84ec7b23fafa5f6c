package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PhotoUploads counts stored uploads by result.
	PhotoUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_photo_uploads_total",
		Help: "Total number of photo uploads by result",
	}, []string{"result"})

	// CommentsCreated counts comments appended to photos.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "photoshare_comments_created_total",
		Help: "Total number of comments created",
	})

	// MentionsRegistered counts user ids added to photo mention sets.
	MentionsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "photoshare_mentions_registered_total",
		Help: "Total number of mention ids registered on photos",
	})

	// LikeToggles counts like toggles by resulting state.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_like_toggles_total",
		Help: "Total number of like toggles by resulting state",
	}, []string{"state"})

	// Deletions counts cascaded deletions by record kind.
	Deletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_deletions_total",
		Help: "Total number of deleted records by kind",
	}, []string{"kind"})

	// NotificationsPublished counts realtime events by type and result.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_notifications_published_total",
		Help: "Total number of published notification events",
	}, []string{"type", "result"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)
