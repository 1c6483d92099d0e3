package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/shlomilevushh/mini-discord/internal/domain"
	"github.com/shlomilevushh/mini-discord/internal/store"
)

type createServerBody struct {
	Name string `json:"name" form:"name" binding:"required"`
}

func (a *API) handleCreateServer(c *gin.Context) {
	user := currentUser(c)

	var req createServerBody
	if err := c.ShouldBind(&req); err != nil {
		fail(c, "Server name is required!")
		return
	}

	srv, err := a.store.CreateServer(req.Name, user.ID)
	if errors.Is(err, store.ErrServerNameTaken) {
		fail(c, "Server name already exists!")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create server")
		fail(c, "Error creating server")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Server '" + srv.Name + "' created successfully!",
		"server_id": srv.ID,
	})
}

func (a *API) handleListServers(c *gin.Context) {
	servers, err := a.store.UserServers(currentUser(c).ID)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list servers")
		fail(c, "Error getting servers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "servers": servers})
}

func (a *API) handleListChannels(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, "Invalid server id!")
		return
	}

	channels, err := a.store.ServerChannels(domain.ServerID(id))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list channels")
		fail(c, "Error getting channels")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "channels": channels})
}

type createChannelBody struct {
	Name string `json:"name" form:"name" binding:"required"`
	Type string `json:"channel_type" form:"channel_type"`
}

func (a *API) handleCreateChannel(c *gin.Context) {
	user := currentUser(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, "Invalid server id!")
		return
	}
	var req createChannelBody
	if err := c.ShouldBind(&req); err != nil {
		fail(c, "Channel name is required!")
		return
	}

	ch, err := a.store.CreateChannel(domain.ServerID(id), req.Name, user.ID, domain.ChannelType(req.Type))
	switch {
	case errors.Is(err, store.ErrNotFound):
		fail(c, "Server not found!")
		return
	case errors.Is(err, store.ErrNotOwner):
		fail(c, "Only server owner can create channels!")
		return
	case errors.Is(err, store.ErrChannelNameTaken):
		fail(c, "Channel name already exists in this server!")
		return
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("create channel")
		fail(c, "Error creating channel")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Channel '" + ch.Name + "' created!",
		"channel_id": ch.ID,
	})
}

type serverInviteBody struct {
	Username string `json:"username" form:"username" binding:"required"`
}

func (a *API) handleSendServerInvite(c *gin.Context) {
	user := currentUser(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, "Invalid server id!")
		return
	}
	var req serverInviteBody
	if err := c.ShouldBind(&req); err != nil {
		fail(c, "Username is required!")
		return
	}

	invitee, err := a.store.UserByUsername(req.Username)
	if errors.Is(err, store.ErrNotFound) {
		fail(c, "User not found!")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("lookup invitee")
		fail(c, "Error sending invite")
		return
	}

	serverID := domain.ServerID(id)
	inviteID, err := a.store.SendServerInvite(serverID, user.ID, invitee.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		fail(c, "Server not found!")
		return
	case errors.Is(err, store.ErrNotOwner):
		fail(c, "Only server owner can invite users!")
		return
	case errors.Is(err, store.ErrAlreadyMember):
		fail(c, "User is already a member of this server!")
		return
	case errors.Is(err, store.ErrInvitePending):
		fail(c, "Invite already sent!")
		return
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("send server invite")
		fail(c, "Error sending invite")
		return
	}

	if srv, err := a.store.ServerByID(serverID); err == nil {
		a.hub.NotifyServerInvite(invitee.ID, *user, srv.Name)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Server invite sent!",
		"invite_id": inviteID,
	})
}

func (a *API) handleListServerInvites(c *gin.Context) {
	invites, err := a.store.PendingServerInvites(currentUser(c).ID)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list invites")
		fail(c, "Error getting invites")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "invites": invites})
}

func (a *API) handleAcceptServerInvite(c *gin.Context) {
	user := currentUser(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, "Invalid invite id!")
		return
	}

	if err := a.store.AcceptServerInvite(domain.InviteID(id), user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, "Invite not found or already processed!")
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Msg("accept invite")
		fail(c, "Error accepting invite")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Server invite accepted!"})
}

func (a *API) handleDeclineServerInvite(c *gin.Context) {
	user := currentUser(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, "Invalid invite id!")
		return
	}

	if err := a.store.DeclineServerInvite(domain.InviteID(id), user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, "Invite not found or already processed!")
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Msg("decline invite")
		fail(c, "Error declining invite")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Server invite declined!"})
}
