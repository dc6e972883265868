package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicPoolRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/pools/{poolID}", handler.GetPool)
	mux.HandleFunc("GET /v1/invites/{code}", handler.GetPoolByInviteCode)
	mux.HandleFunc("GET /v1/pools/{poolID}/slots", handler.ListSlots)
	mux.HandleFunc("GET /v1/pools/{poolID}/matchups", handler.ListMatchups)
	mux.HandleFunc("GET /v1/pools/{poolID}/scoreboard", handler.GetScoreboard)
}

func registerMemberRoutes(mux *http.ServeMux, handler *Handler) {
	mux.Handle("POST /v1/pools", RequirePrincipal(http.HandlerFunc(handler.CreatePool)))
	mux.Handle("POST /v1/pools/{poolID}/lock", RequirePrincipal(http.HandlerFunc(handler.LockPool)))
	mux.Handle("POST /v1/pools/{poolID}/complete", RequirePrincipal(http.HandlerFunc(handler.CompletePool)))
	mux.Handle("PUT /v1/pools/{poolID}/payout", RequirePrincipal(http.HandlerFunc(handler.UpdatePayout)))

	mux.Handle("POST /v1/pools/{poolID}/cells/{row}/{col}/claim", RequirePrincipal(http.HandlerFunc(handler.ClaimCell)))
	mux.Handle("POST /v1/pools/{poolID}/cells/{row}/{col}/release", RequirePrincipal(http.HandlerFunc(handler.ReleaseCell)))
	mux.Handle("POST /v1/pools/{poolID}/strips/{position}/claim", RequirePrincipal(http.HandlerFunc(handler.ClaimStrip)))
	mux.Handle("POST /v1/pools/{poolID}/strips/{position}/release", RequirePrincipal(http.HandlerFunc(handler.ReleaseStrip)))

	mux.Handle("POST /v1/pools/{poolID}/matchups/import", RequirePrincipal(http.HandlerFunc(handler.ImportMatchups)))
	mux.Handle("PUT /v1/matchups/{matchupID}/scores/{period}", RequirePrincipal(http.HandlerFunc(handler.RecordScore)))
	mux.Handle("PUT /v1/matchups/{matchupID}/pick", RequirePrincipal(http.HandlerFunc(handler.SubmitPick)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/rescore", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRescoreJob)))
}
