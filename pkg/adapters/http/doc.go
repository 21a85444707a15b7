/*
Package http serves dialogue sessions over a small JSON API.

	POST   /sessions                {"path", "node"}           start a session
	GET    /sessions                                           list stored sessions
	GET    /sessions/{id}                                      current render
	POST   /sessions/{id}/advance                              next text
	POST   /sessions/{id}/select    {"index"}                  highlight a choice
	POST   /sessions/{id}/confirm                              commit the selection
	POST   /sessions/{id}/poll      {"elapsed_ms", "cursor"}   advance time, collect actions
	DELETE /sessions/{id}                                      stop and forget
	GET    /sessions/{id}/events                               server-sent updates
	GET    /metrics                                            Prometheus, when configured

Unknown sessions, programs and nodes answer 404. Invalid or missing
selections answer 422.
*/
package http
