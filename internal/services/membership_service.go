package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dias221467/groupchat/internal/models"
	"github.com/Dias221467/groupchat/internal/observability"
	"github.com/Dias221467/groupchat/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Join outcomes.
const (
	JoinStatusPending = "pending"
	JoinStatusJoined  = "joined"
)

// CreateGroupInput is the payload for MembershipService.Create.
type CreateGroupInput struct {
	Name              string
	Description       string
	Category          string
	CreatorID         string
	Members           []string
	Progress          int
	NextMeeting       string
	ActiveDiscussions int
	IsPrivate         bool
}

// MembershipService drives the group join/request/accept/reject/leave
// state machine. A user is a stranger, a requester or a member of a group;
// the creator owns the group and is outside that machine.
type MembershipService struct {
	groups        GroupStore
	users         UserStore
	txn           repository.Transactor
	notifier      *NotificationService
	locks         *keyLocker
	defaultAvatar string
}

func NewMembershipService(groups GroupStore, users UserStore, txn repository.Transactor, notifier *NotificationService, defaultAvatar string) *MembershipService {
	return &MembershipService{
		groups:        groups,
		users:         users,
		txn:           txn,
		notifier:      notifier,
		locks:         newKeyLocker(),
		defaultAvatar: defaultAvatar,
	}
}

// Create stores a new group with the given members and notifies them. The
// creator is never stored as a member.
func (s *MembershipService) Create(ctx context.Context, in CreateGroupInput) (*models.GroupView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.CreatorID == "" {
		return nil, validationf("Group name and creatorId are required.")
	}
	creator, err := parseID(in.CreatorID, "Invalid creatorId")
	if err != nil {
		return nil, err
	}
	members := make([]primitive.ObjectID, 0, len(in.Members))
	for _, raw := range in.Members {
		id, err := parseID(raw, fmt.Sprintf("Invalid member id %q", raw))
		if err != nil {
			return nil, err
		}
		if !models.ContainsID(members, id) {
			members = append(members, id)
		}
	}

	group := &models.Group{
		Name:              name,
		Description:       in.Description,
		Category:          in.Category,
		Creator:           creator,
		Members:           members,
		JoinRequests:      []primitive.ObjectID{},
		IsPrivate:         in.IsPrivate,
		Progress:          in.Progress,
		NextMeeting:       in.NextMeeting,
		ActiveDiscussions: in.ActiveDiscussions,
	}

	var notifs []*models.Notification
	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		notifs = nil
		if _, err := s.groups.CreateGroup(ctx, group); err != nil {
			return err
		}
		n, err := s.notifier.Record(ctx, models.Audience([]primitive.ObjectID{creator}, members), Notice{
			Title:       "New Group Created",
			Description: fmt.Sprintf("You've been added to the group %q", group.Name),
			Server:      models.ServerGroupSystem,
		})
		if err != nil {
			return err
		}
		notifs = append(notifs, n)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, notifs...)
	observability.IncTransition("membership", "create")
	logrus.WithFields(logrus.Fields{"groupID": group.ID.Hex(), "creator": creator.Hex()}).Info("Group created")
	return s.view(ctx, group)
}

// Get returns one group with populated references.
func (s *MembershipService) Get(ctx context.Context, groupID string) (*models.GroupView, error) {
	gid, err := parseID(groupID, "Invalid groupId")
	if err != nil {
		return nil, err
	}
	group, err := s.loadGroup(ctx, gid)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, group)
}

// List returns the groups userID created or belongs to, or every group
// when userID is empty.
func (s *MembershipService) List(ctx context.Context, userID string) ([]models.GroupView, error) {
	var filter *primitive.ObjectID
	if userID != "" {
		uid, err := parseID(userID, "Invalid userId")
		if err != nil {
			return nil, err
		}
		filter = &uid
	}
	groups, err := s.groups.ListGroups(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, groups)
}

// Join adds userID to a public group, or records a join request for a
// private one. It returns JoinStatusJoined or JoinStatusPending.
func (s *MembershipService) Join(ctx context.Context, groupID, userID string) (string, error) {
	gid, uid, err := parsePair(groupID, userID)
	if err != nil {
		return "", err
	}
	defer s.locks.lock(groupKey(gid))()

	var status string
	var notifs []*models.Notification
	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		notifs = nil
		group, err := s.loadGroup(ctx, gid)
		if err != nil {
			return err
		}
		if group.IsMember(uid) {
			return conflictf("You are already a member of this group.")
		}
		if group.Creator == uid {
			return conflictf("You created this group.")
		}

		if group.IsPrivate {
			if group.HasJoinRequest(uid) {
				return conflictf("Join request already sent for this private group.")
			}
			added, err := s.groups.AddJoinRequest(ctx, gid, uid)
			if err != nil {
				return err
			}
			if !added {
				return conflictf("Join request already sent for this private group.")
			}
			n, err := s.notifier.Record(ctx, []primitive.ObjectID{group.Creator}, Notice{
				Title:       "New Join Request",
				Description: fmt.Sprintf("A user has requested to join your group %q", group.Name),
				Server:      models.ServerGroupSystem,
			})
			if err != nil {
				return err
			}
			notifs = append(notifs, n)
			status = JoinStatusPending
			return nil
		}

		notify := models.Audience([]primitive.ObjectID{uid}, []primitive.ObjectID{group.Creator}, group.Members)
		added, err := s.groups.AddMember(ctx, gid, uid)
		if err != nil {
			return err
		}
		if !added {
			return conflictf("You are already a member of this group.")
		}
		if len(notify) > 0 {
			n, err := s.notifier.Record(ctx, notify, memberJoinedNotice(group))
			if err != nil {
				return err
			}
			notifs = append(notifs, n)
		}
		status = JoinStatusJoined
		return nil
	})
	if err != nil {
		return "", err
	}

	s.notifier.Dispatch(ctx, notifs...)
	observability.IncTransition("membership", "join_"+status)
	return status, nil
}

// AcceptRequest moves userID from the join requests into the roster. The
// roster is notified using its membership before the change.
func (s *MembershipService) AcceptRequest(ctx context.Context, groupID, userID string) error {
	gid, uid, err := parsePair(groupID, userID)
	if err != nil {
		return err
	}
	defer s.locks.lock(groupKey(gid))()

	var notifs []*models.Notification
	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		notifs = nil
		group, err := s.loadGroup(ctx, gid)
		if err != nil {
			return err
		}
		if group.IsMember(uid) {
			return conflictf("User is already a member of this group.")
		}

		notify := models.Audience([]primitive.ObjectID{uid}, []primitive.ObjectID{group.Creator}, group.Members)
		added, err := s.groups.AddMember(ctx, gid, uid)
		if err != nil {
			return err
		}
		if !added {
			return conflictf("User is already a member of this group.")
		}

		joined, err := s.notifier.Record(ctx, notify, memberJoinedNotice(group))
		if err != nil {
			return err
		}
		accepted, err := s.notifier.Record(ctx, []primitive.ObjectID{uid}, Notice{
			Title:       "Request Accepted",
			Description: fmt.Sprintf("Your request to join the group %q was accepted.", group.Name),
			Server:      models.ServerGroupSystem,
		})
		if err != nil {
			return err
		}
		notifs = append(notifs, joined, accepted)
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Dispatch(ctx, notifs...)
	observability.IncTransition("membership", "accept")
	return nil
}

// RejectRequest drops a pending join request without notifying anyone.
func (s *MembershipService) RejectRequest(ctx context.Context, groupID, userID string) error {
	if userID == "" {
		return validationf("Missing userId")
	}
	gid, uid, err := parsePair(groupID, userID)
	if err != nil {
		return err
	}
	defer s.locks.lock(groupKey(gid))()

	if _, err := s.loadGroup(ctx, gid); err != nil {
		return err
	}
	removed, err := s.groups.RemoveJoinRequest(ctx, gid, uid)
	if err != nil {
		return err
	}
	if !removed {
		return validationf("User not in join requests or already processed.")
	}
	observability.IncTransition("membership", "reject")
	return nil
}

// AddMembers adds every id not yet in the roster. Empty ids are skipped and
// duplicates collapse. It returns the ids actually added; an empty result
// is a successful no-op.
func (s *MembershipService) AddMembers(ctx context.Context, groupID string, userIDs []string) ([]primitive.ObjectID, error) {
	gid, err := parseID(groupID, "Invalid groupId")
	if err != nil {
		return nil, err
	}
	candidates := make([]primitive.ObjectID, 0, len(userIDs))
	for _, raw := range userIDs {
		if raw == "" {
			continue
		}
		id, err := parseID(raw, fmt.Sprintf("Invalid user id %q", raw))
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, id)
	}
	defer s.locks.lock(groupKey(gid))()

	var added []primitive.ObjectID
	var notifs []*models.Notification
	err = s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		added, notifs = nil, nil
		group, err := s.loadGroup(ctx, gid)
		if err != nil {
			return err
		}
		added = models.Audience(group.Members, candidates)
		if len(added) == 0 {
			return nil
		}
		if err := s.groups.AddMembers(ctx, gid, added); err != nil {
			return err
		}

		n, err := s.notifier.Record(ctx, added, Notice{
			Title:       "Added to Group",
			Description: fmt.Sprintf("You've been added to the group %q", group.Name),
			Server:      models.ServerGroupSystem,
		})
		if err != nil {
			return err
		}
		notifs = append(notifs, n)

		others := models.Audience(added, []primitive.ObjectID{group.Creator}, group.Members)
		if len(others) > 0 {
			n, err := s.notifier.Record(ctx, others, Notice{
				Title:       "New Members Added",
				Description: fmt.Sprintf("New members have joined your group %q", group.Name),
				Server:      models.ServerGroupSystem,
			})
			if err != nil {
				return err
			}
			notifs = append(notifs, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, notifs...)
	if len(added) > 0 {
		observability.IncTransition("membership", "add_members")
	}
	return added, nil
}

// Leave removes userID from the roster and tells the creator and remaining
// members who left. The creator cannot leave.
func (s *MembershipService) Leave(ctx context.Context, groupID, userID string) (*models.GroupView, error) {
	gid, errG := primitive.ObjectIDFromHex(groupID)
	uid, errU := primitive.ObjectIDFromHex(userID)
	if errG != nil || errU != nil {
		return nil, validationf("Invalid groupId or userId")
	}
	defer s.locks.lock(groupKey(gid))()

	var updated *models.Group
	var notifs []*models.Notification
	err := s.txn.WithTransaction(ctx, func(ctx context.Context) error {
		notifs = nil
		group, err := s.loadGroup(ctx, gid)
		if err != nil {
			return err
		}
		if group.Creator == uid {
			return conflictf("Group creator cannot leave. You may delete the group.")
		}
		removed, err := s.groups.RemoveMember(ctx, gid, uid)
		if err != nil {
			return err
		}
		if !removed {
			return conflictf("You are not a member of this group.")
		}

		name, err := s.displayName(ctx, uid)
		if err != nil {
			return err
		}
		remaining := make([]primitive.ObjectID, 0, len(group.Members))
		for _, m := range group.Members {
			if m != uid {
				remaining = append(remaining, m)
			}
		}
		group.Members = remaining
		updated = group

		notify := models.Audience([]primitive.ObjectID{uid}, []primitive.ObjectID{group.Creator}, remaining)
		if len(notify) > 0 {
			n, err := s.notifier.Record(ctx, notify, Notice{
				Title:       "Member Left Group",
				Description: fmt.Sprintf("%s left your group %q", name, group.Name),
				Server:      models.ServerGroupSystem,
			})
			if err != nil {
				return err
			}
			notifs = append(notifs, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, notifs...)
	observability.IncTransition("membership", "leave")
	return s.view(ctx, updated)
}

func (s *MembershipService) loadGroup(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	group, err := s.groups.GetGroupByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "Group not found")
	}
	return group, nil
}

func (s *MembershipService) displayName(ctx context.Context, id primitive.ObjectID) (string, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "A member", nil
		}
		return "", err
	}
	if name := user.DisplayName(); name != "" {
		return name, nil
	}
	return "A member", nil
}

func (s *MembershipService) view(ctx context.Context, group *models.Group) (*models.GroupView, error) {
	views, err := s.views(ctx, []models.Group{*group})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// views populates user references for every group with one user lookup.
func (s *MembershipService) views(ctx context.Context, groups []models.Group) ([]models.GroupView, error) {
	var ids []primitive.ObjectID
	for i := range groups {
		ids = models.Audience(nil, ids, []primitive.ObjectID{groups[i].Creator}, groups[i].Members, groups[i].JoinRequests)
	}
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	public := func(id primitive.ObjectID) models.PublicUser {
		if u, ok := byID[id]; ok {
			return u.Public()
		}
		return models.PublicUser{ID: id}
	}

	out := make([]models.GroupView, 0, len(groups))
	for _, g := range groups {
		creator := public(g.Creator)
		v := models.GroupView{
			ID:                g.ID,
			Name:              g.Name,
			Description:       g.Description,
			Category:          g.Category,
			Creator:           &creator,
			Members:           make([]models.PublicUser, 0, len(g.Members)),
			MemberAvatars:     make([]string, 0, len(g.Members)),
			JoinRequests:      make([]models.PublicUser, 0, len(g.JoinRequests)),
			IsPrivate:         g.IsPrivate,
			Progress:          g.Progress,
			NextMeeting:       g.NextMeeting,
			ActiveDiscussions: g.ActiveDiscussions,
			CreatedAt:         g.CreatedAt,
		}
		for _, m := range g.Members {
			v.Members = append(v.Members, public(m))
			avatar := s.defaultAvatar
			if u, ok := byID[m]; ok && u.Avatar != "" {
				avatar = u.Avatar
			}
			v.MemberAvatars = append(v.MemberAvatars, avatar)
		}
		for _, r := range g.JoinRequests {
			v.JoinRequests = append(v.JoinRequests, public(r))
		}
		out = append(out, v)
	}
	return out, nil
}

func memberJoinedNotice(group *models.Group) Notice {
	return Notice{
		Title:       "New Member Joined",
		Description: fmt.Sprintf("A new member has joined your group %q", group.Name),
		Server:      models.ServerGroupSystem,
	}
}

func parsePair(groupID, userID string) (primitive.ObjectID, primitive.ObjectID, error) {
	gid, err := parseID(groupID, "Invalid groupId")
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	uid, err := parseID(userID, "Invalid userId")
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	return gid, uid, nil
}
