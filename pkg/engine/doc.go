// Package engine serves the mockroute route table over HTTP.
//
// A Server owns one listener. Requests to the fixed endpoints (/echo, /host,
// /healthz, /status/{code}, /errors and the /routes update endpoint) are
// answered directly; every other request goes to the Dispatcher, which
// looks the exact path up in the route table:
//
//	path unknown             -> 404, empty body
//	method differs           -> 405, empty body
//	route flagged as error   -> injected status, empty body
//	GET, POST, PATCH, PUT    -> route code and response
//	DELETE                   -> route code, empty body
//
// The Mutator applies route updates. A payload is parsed and validated in
// full before any route is stored, so a rejected update changes nothing.
package engine
