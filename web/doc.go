// Package web serves the horse lookup form, a JSON API, a health check and
// Prometheus metrics over HTTP using gin.
//
// Routes:
//
//	GET  /                     form, optional ?name= runs a search
//	POST /                     form submission (field "name")
//	GET  /api/v1/matches?name= JSON search result
//	GET  /healthz              200 once artifacts are loaded
//	GET  /metrics              Prometheus exposition
package web
