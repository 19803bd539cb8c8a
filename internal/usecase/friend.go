package usecase

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/essay-evaluator/internal/domain"
)

// FriendService manages the mutual friendship graph behind the feed's
// friends visibility tier. Friends are addressed by username at the
// edge of the system and stored by id.
type FriendService struct {
	Friends domain.FriendRepository
	Users   domain.UserRepository
}

// NewFriendService constructs a FriendService.
func NewFriendService(f domain.FriendRepository, u domain.UserRepository) FriendService {
	return FriendService{Friends: f, Users: u}
}

// Add befriends the named user. Friendships are symmetric, so after Add
// each side sees the other's friends-visibility essays.
func (s FriendService) Add(ctx domain.Context, userID, friendUsername string) (domain.User, error) {
	if userID == "" {
		return domain.User{}, fmt.Errorf("%w: user required", domain.ErrInvalidArgument)
	}
	friend, err := s.Users.GetByUsername(ctx, strings.TrimSpace(friendUsername))
	if err != nil {
		return domain.User{}, err
	}
	if friend.ID == userID {
		return domain.User{}, fmt.Errorf("%w: cannot befriend yourself", domain.ErrInvalidArgument)
	}
	if err := s.Friends.Add(ctx, userID, friend.ID); err != nil {
		return domain.User{}, fmt.Errorf("friend add: %w", err)
	}
	friend.PasswordHash = ""
	return friend, nil
}

// Remove ends the friendship with the named user, in both directions.
func (s FriendService) Remove(ctx domain.Context, userID, friendUsername string) error {
	if userID == "" {
		return fmt.Errorf("%w: user required", domain.ErrInvalidArgument)
	}
	friend, err := s.Users.GetByUsername(ctx, strings.TrimSpace(friendUsername))
	if err != nil {
		return err
	}
	return s.Friends.Remove(ctx, userID, friend.ID)
}

// List returns the user's friends.
func (s FriendService) List(ctx domain.Context, userID string) ([]domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user required", domain.ErrInvalidArgument)
	}
	friends, err := s.Friends.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("friend list: %w", err)
	}
	for i := range friends {
		friends[i].PasswordHash = ""
	}
	return friends, nil
}
