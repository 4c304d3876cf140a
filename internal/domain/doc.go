// Package domain models disaster-related news articles and user alert
// subscriptions.
//
// # Data Source
//
// Articles come from a keyword search against a news article API. One
// request is issued per keyword in [Keywords]; each hit carries a title,
// source name, URL, and publish timestamp. The stored event label is the
// keyword with its first letter upper-cased ("wildfire" → "Wildfire").
//
// # Location Extraction
//
// A record's location is extracted from its title via named-entity
// recognition, keeping entities tagged as geopolitical places (GPE). When a
// title mentions several places the first one in recognition order wins;
// there is deliberately no scoring or disambiguation, for parity with the
// behavior consumers were built against. Articles with no recognizable
// place cannot be mapped and are dropped.
//
// # Storage Keys and Idempotence
//
// The article URL is globally unique and keys every write: storing the same
// article twice replaces the existing row rather than inserting a second
// one, so a full pipeline re-run over the same articles is a no-op apart
// from refreshed field values. Subscriptions are keyed by email with
// full-replace semantics. Delivery ledger rows are keyed by (url, email).
//
// # Read-Time Cleaning
//
// Consumers never see raw rows. [Clean] drops rows without a parseable
// timestamp or coordinates, rows whose location is a known non-specific
// name (e.g. "World", "Reuters"), and rows whose URL or title contains an
// off-topic keyword, then deduplicates by title and by
// (date, event, location). The date portion uses the UTC day of the publish
// timestamp, so two headlines about the same flood in the same city on the
// same day count once.
package domain
