// Package lostfound provides the item-management core of the lost-and-found
// listing service: validation, the persisted item lifecycle, and the coupling
// between an item record and its optional uploaded image.
//
// A single Service orchestrates a Repository (item records) and an AssetStore
// (image files). Repository implementations (memory, MongoDB, Postgres) live
// under repo/, asset stores (filesystem, S3, memory) under storage/.
//
// Record/asset consistency
//
// Items hold a weak reference to their image by filename. The store never
// learns about items, so the Service is the only place that keeps the two in
// step: a failed insert removes the freshly stored asset, and deleting an item
// removes its asset before the record. ReconcileAssets prunes files that no
// item references and reports items whose image has gone missing.
package lostfound
