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

type friendRequestBody struct {
	Username string `json:"username" form:"username" binding:"required"`
}

func (a *API) handleSendFriendRequest(c *gin.Context) {
	user := currentUser(c)

	var req friendRequestBody
	if err := c.ShouldBind(&req); err != nil {
		fail(c, "Username is required!")
		return
	}

	requestID, receiverID, err := a.store.SendFriendRequest(user.ID, req.Username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		fail(c, "User not found!")
		return
	case errors.Is(err, store.ErrSelfFriend):
		fail(c, "You can't add yourself as a friend!")
		return
	case errors.Is(err, store.ErrAlreadyFriends):
		fail(c, "You are already friends!")
		return
	case errors.Is(err, store.ErrRequestPending):
		fail(c, "Friend request already sent!")
		return
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("send friend request")
		fail(c, "Error sending friend request")
		return
	}

	a.hub.NotifyFriendRequest(receiverID, *user)

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Friend request sent to " + req.Username + "!",
		"request_id":  requestID,
		"receiver_id": receiverID,
	})
}

func (a *API) handleAcceptFriendRequest(c *gin.Context) {
	user := currentUser(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, "Invalid request id!")
		return
	}

	requesterID, err := a.store.AcceptFriendRequest(domain.RequestID(id), user.ID)
	if errors.Is(err, store.ErrNotFound) {
		fail(c, "Friend request not found or already processed!")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("accept friend request")
		fail(c, "Error accepting friend request")
		return
	}

	a.hub.NotifyFriendRequestAccepted(requesterID, *user)

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Friend request accepted!",
		"requester_id": requesterID,
	})
}

func (a *API) handleDeclineFriendRequest(c *gin.Context) {
	user := currentUser(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, "Invalid request id!")
		return
	}

	if err := a.store.DeclineFriendRequest(domain.RequestID(id), user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, "Friend request not found or already processed!")
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Msg("decline friend request")
		fail(c, "Error declining friend request")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Friend request declined!"})
}

func (a *API) handleListFriends(c *gin.Context) {
	friends, err := a.store.Friends(currentUser(c).ID)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list friends")
		fail(c, "Error getting friends")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "friends": friends})
}

func (a *API) handleListFriendRequests(c *gin.Context) {
	requests, err := a.store.PendingFriendRequests(currentUser(c).ID)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list friend requests")
		fail(c, "Error getting friend requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "requests": requests})
}

func (a *API) handleChatHistory(c *gin.Context) {
	user := currentUser(c)

	other, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		fail(c, "Invalid user id!")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	history, err := a.store.ChatHistory(user.ID, domain.UserID(other), limit)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("chat history")
		fail(c, "Error getting chat history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": history})
}
