package redisx

import "time"

const (
	// Bag per session: bag:{session_id} -> JSON array of line items
	KeyBag = "bag:%s"

	// Promo aktif per session: promo:{session_id} -> kode promo ("" = tidak ada)
	KeyPromo = "promo:%s"

	// Cache status order: order_status:{order_id} -> {"status": "...", "updated_at": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLBag         = 30 * 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
