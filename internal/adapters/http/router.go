// Package http is the gin transport: the REST API around the store, the
// websocket endpoint feeding the hub, and static files for the SPA.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/shlomilevushh/mini-discord/internal/auth"
	"github.com/shlomilevushh/mini-discord/internal/config"
	"github.com/shlomilevushh/mini-discord/internal/hub"
	"github.com/shlomilevushh/mini-discord/internal/store"
)

// API bundles the collaborators every handler needs.
type API struct {
	cfg    *config.Config
	store  *store.Store
	hub    *hub.Hub
	tokens *auth.Tokens
}

func NewAPI(cfg *config.Config, st *store.Store, h *hub.Hub, tokens *auth.Tokens) *API {
	return &API{cfg: cfg, store: st, hub: h, tokens: tokens}
}

func SetupRouter(cfg *config.Config, api *API) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/register", api.handleRegister)
	r.POST("/login", api.handleLogin)
	r.GET("/logout", api.handleLogout)

	r.GET("/ws", api.handleWS)

	authed := r.Group("/api", api.authRequired())
	{
		authed.GET("/me", api.handleMe)

		authed.POST("/friends/request", api.handleSendFriendRequest)
		authed.POST("/friends/accept/:id", api.handleAcceptFriendRequest)
		authed.POST("/friends/decline/:id", api.handleDeclineFriendRequest)
		authed.GET("/friends", api.handleListFriends)
		authed.GET("/friends/requests", api.handleListFriendRequests)

		authed.GET("/messages/:user_id", api.handleChatHistory)

		authed.POST("/servers", api.handleCreateServer)
		authed.GET("/servers", api.handleListServers)
		authed.GET("/servers/:id/channels", api.handleListChannels)
		authed.POST("/servers/:id/channels", api.handleCreateChannel)
		authed.POST("/servers/:id/invites", api.handleSendServerInvite)

		authed.GET("/invites", api.handleListServerInvites)
		authed.POST("/invites/:id/accept", api.handleAcceptServerInvite)
		authed.POST("/invites/:id/decline", api.handleDeclineServerInvite)

		authed.POST("/channels/:id/join", api.handleJoinChannel)
		authed.POST("/channels/:id/leave", api.handleLeaveChannel)
		authed.GET("/channels/:id/members", api.handleChannelMembers)
		authed.GET("/channels/:id/messages", api.handleChannelMessages)
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}
