package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"PokeShop/internal/events"
	"PokeShop/internal/models"
	"PokeShop/internal/notify"
	"PokeShop/internal/store"

	"github.com/google/uuid"
)

type AdminService struct {
	Store    AdminStore
	Events   events.Publisher
	Notifier notify.Notifier
	Now      func() time.Time
}

func NewAdminService(st AdminStore, pub events.Publisher, n notify.Notifier) *AdminService {
	if pub == nil {
		pub = events.Nop{}
	}
	if n == nil {
		n = notify.Nop{}
	}
	return &AdminService{Store: st, Events: pub, Notifier: n, Now: utcNow}
}

// SellerRequests lists requests newest first. status is matched
// case-insensitively; empty means all.
func (s *AdminService) SellerRequests(ctx context.Context, status string) ([]*models.SellerRequest, error) {
	var filter *models.SellerRequestStatus
	if status != "" {
		st, ok := models.ParseSellerRequestStatus(strings.ToUpper(status))
		if !ok {
			return nil, invalid("Invalid status")
		}
		filter = &st
	}
	reqs, err := s.Store.ListSellerRequests(ctx, filter)
	if reqs == nil {
		reqs = []*models.SellerRequest{}
	}
	return reqs, err
}

func (s *AdminService) Approve(ctx context.Context, admin *models.User, id uuid.UUID, note *string) (*models.SellerRequest, error) {
	req, err := s.Store.ApproveSellerRequest(ctx, id, admin.ID, emptyToNil(note), s.Now())
	if err != nil {
		return nil, requestErr(err)
	}
	log.Printf("seller request %s approved by %s", req.ID, admin.Username)
	s.resolved(ctx, events.SellerRequestApproved, req)
	return req, nil
}

func (s *AdminService) Reject(ctx context.Context, admin *models.User, id uuid.UUID, note *string) (*models.SellerRequest, error) {
	text := "Request rejected"
	if n := emptyToNil(note); n != nil {
		text = *n
	}
	req, err := s.Store.RejectSellerRequest(ctx, id, admin.ID, text, s.Now())
	if err != nil {
		return nil, requestErr(err)
	}
	log.Printf("seller request %s rejected by %s", req.ID, admin.Username)
	s.resolved(ctx, events.SellerRequestRejected, req)
	return req, nil
}

func (s *AdminService) resolved(ctx context.Context, typ string, req *models.SellerRequest) {
	if err := s.Events.Publish(ctx, events.New(typ, req.ID, req)); err != nil {
		log.Printf("publish %s %s: %v", typ, req.ID, err)
	}
	s.Notifier.Notify(req.UserID, notify.Message{Type: "seller_request.updated", Data: req})
}

func requestErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFound("Request not found")
	case errors.Is(err, store.ErrNotPending):
		return invalid("Request already processed")
	}
	return err
}

// Users lists accounts newest first. role is matched case-insensitively and
// active is "true" or anything else for false; empty values do not filter.
func (s *AdminService) Users(ctx context.Context, role, active string) ([]*models.User, error) {
	var filter models.UserFilter
	if role != "" {
		r, ok := models.ParseRole(strings.ToUpper(role))
		if !ok {
			return nil, invalid("Invalid role")
		}
		filter.Role = &r
	}
	if active != "" {
		v := active == "true"
		filter.Active = &v
	}
	users, err := s.Store.ListUsers(ctx, filter)
	if users == nil {
		users = []*models.User{}
	}
	return users, err
}

func (s *AdminService) Deactivate(ctx context.Context, admin *models.User, id uuid.UUID) (*models.User, error) {
	if id == admin.ID {
		return nil, invalid("Cannot deactivate yourself")
	}
	target, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return nil, userErr(err)
	}
	if target.Role == models.RoleAdmin {
		return nil, invalid("Cannot deactivate admin accounts")
	}
	u, err := s.Store.SetUserActive(ctx, id, false)
	if err != nil {
		return nil, userErr(err)
	}
	log.Printf("user %s deactivated by %s", u.Username, admin.Username)
	return u, nil
}

func (s *AdminService) Reactivate(ctx context.Context, admin *models.User, id uuid.UUID) (*models.User, error) {
	u, err := s.Store.SetUserActive(ctx, id, true)
	if err != nil {
		return nil, userErr(err)
	}
	log.Printf("user %s reactivated by %s", u.Username, admin.Username)
	return u, nil
}

func (s *AdminService) SetRole(ctx context.Context, admin *models.User, id uuid.UUID, role string) (*models.User, error) {
	r, ok := models.ParseRole(role)
	if !ok {
		return nil, invalid("Invalid role")
	}
	if id == admin.ID {
		return nil, invalid("Cannot change your own role")
	}
	u, err := s.Store.SetUserRole(ctx, id, r)
	if err != nil {
		return nil, userErr(err)
	}
	log.Printf("user %s role -> %s by %s", u.Username, r, admin.Username)
	return u, nil
}

func userErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound("User not found")
	}
	return err
}
