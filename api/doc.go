// Package api exposes lost and found search, uploads, listings and user
// registration over HTTP using a chi router.
//
// Routes:
//
//	GET    /health
//	POST   /api/search          JSON {text?, image? (base64 or data URL), top_k?}
//	POST   /api/detect          multipart: file; returns cropped and boxed data URLs
//	POST   /api/items           multipart: title, type, category?, file (Basic auth)
//	GET    /api/items/lost      ?limit=
//	GET    /api/items/found     ?limit=
//	GET    /api/items/{id}
//	DELETE /api/items/{id}      (Basic auth; owner or admin)
//	POST   /api/users           JSON {username, email, password}
//	POST   /api/reports         JSON {item_id, type, comment?} (Basic auth; not the owner)
//
// Failures are reported as {"error": "<message>"}: invalid input is 400,
// bad credentials 401, forbidden deletions and self reports 403, unknown
// items 404, duplicate users or reports 409 and unavailable models,
// detection or storage 503. A failed search never returns a partial ranking.
package api
