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

func channelParam(c *gin.Context) (domain.ChannelID, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, "Invalid channel id!")
		return 0, false
	}
	return domain.ChannelID(id), true
}

func (a *API) handleJoinChannel(c *gin.Context) {
	user := currentUser(c)

	ch, ok := channelParam(c)
	if !ok {
		return
	}

	if err := a.store.JoinChannel(ch, user.ID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			fail(c, "Channel not found!")
		case errors.Is(err, store.ErrNotServerMember):
			fail(c, "You are not a member of this server!")
		default:
			log.Error().Err(err).Str("module", "adapters.http").Msg("join channel")
			fail(c, "Error joining channel")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Joined channel!"})
}

func (a *API) handleLeaveChannel(c *gin.Context) {
	user := currentUser(c)

	ch, ok := channelParam(c)
	if !ok {
		return
	}

	if err := a.store.LeaveChannel(ch, user.ID); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("leave channel")
		fail(c, "Error leaving channel")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Left channel!"})
}

func (a *API) handleChannelMembers(c *gin.Context) {
	ch, ok := channelParam(c)
	if !ok {
		return
	}

	members, err := a.store.ChannelMembers(ch)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("channel members")
		fail(c, "Error getting channel members")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "members": members})
}

func (a *API) handleChannelMessages(c *gin.Context) {
	ch, ok := channelParam(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := a.store.ChannelMessages(ch, limit)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("channel messages")
		fail(c, "Error getting channel messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages})
}
