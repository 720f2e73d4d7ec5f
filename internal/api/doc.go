// Package api implements gauth's HTTP JSON interface.
//
// Every endpoint takes a JSON body carrying an api_key and is refused unless
// the key resolves to a registered host in the loc_auth table. The endpoints
// manage TOTP secrets keyed by a caller-supplied ident:
//
//	POST /create  {api_key, ident}              -> {status}
//	POST /verify  {api_key, ident, code}        -> {status}
//	POST /rotate  {api_key, ident}              -> {status}
//	POST /qr      {api_key, ident, name, title} -> {status, qr_code}
//	POST /qr_url  {api_key, ident, name, title} -> {status, qr_code_url}
//
// Error responses carry {status: false, error: "..."} with a status code
// distinguishing bad input (400), unknown api key (401), unknown ident (404),
// and duplicate ident (409).
package api
