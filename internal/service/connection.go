package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"studenthelp/backend/internal/apperr"
	"studenthelp/backend/internal/models"

	"gorm.io/gorm"
)

// Direction selects pending requests relative to the viewer.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Relation is the logical relationship between a viewer and another user.
type Relation struct {
	Status models.ConnectionStatus
	// Connection is the row that decided Status; nil when Status is NONE.
	Connection *models.Connection
	// Outgoing is true when the viewer sent the deciding request.
	Outgoing bool
}

// ConnectionWithUser pairs a connection with the party that is not the viewer.
type ConnectionWithUser struct {
	Connection models.Connection
	OtherUser  models.User
}

type connectionRequestPayload struct {
	ConnectionID uint                    `json:"connectionId"`
	Status       models.ConnectionStatus `json:"status"`
	Requester    UserSnapshot            `json:"requester"`
}

type connectionResponsePayload struct {
	ConnectionID uint                    `json:"connectionId"`
	UserID       uint                    `json:"userId"`
	Status       models.ConnectionStatus `json:"status"`
}

// ConnectionService owns the connection lifecycle: NONE -> PENDING -> ACCEPTED | DECLINED.
type ConnectionService struct {
	db       *gorm.DB
	notifier *Notifier
	logger   *slog.Logger
}

// NewConnectionService creates a ConnectionService.
func NewConnectionService(db *gorm.DB, notifier *Notifier) *ConnectionService {
	return &ConnectionService{
		db:       db,
		notifier: notifier,
		logger:   slog.Default().With("component", "connections"),
	}
}

// Request creates a PENDING connection from requesterID to receiverID and
// notifies the receiver.
func (s *ConnectionService) Request(ctx context.Context, requesterID, receiverID uint) (*models.Connection, error) {
	if requesterID == receiverID {
		return nil, apperr.NewBadRequest("Cannot send a connection request to yourself")
	}

	db := s.db.WithContext(ctx)

	requester, err := findUser(db, requesterID, "User not found")
	if err != nil {
		return nil, err
	}
	receiver, err := findUser(db, receiverID, "Target user not found")
	if err != nil {
		return nil, err
	}

	key := models.PairKey(requesterID, receiverID)

	var existing models.Connection
	err = db.Where("active_pair_key = ?", key).First(&existing).Error
	if err == nil {
		return nil, apperr.NewConflict("Connection already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.Internal, "Failed to check existing connection", err)
	}

	conn := models.Connection{
		RequesterID:   requesterID,
		ReceiverID:    receiverID,
		PairKey:       key,
		ActivePairKey: &key,
		Status:        models.StatusPending,
	}
	if err := db.Create(&conn).Error; err != nil {
		// Lost a race with a concurrent request for the same pair.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Wrap(apperr.Conflict, "Connection already exists", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "Failed to create connection", err)
	}
	conn.Requester = *requester
	conn.Receiver = *receiver

	s.fanOut(ctx, receiverID, models.NotificationConnectionRequest,
		fmt.Sprintf("%s wants to connect with you", displayName(requester)),
		connectionRequestPayload{
			ConnectionID: conn.ID,
			Status:       conn.Status,
			Requester:    SnapshotOf(*requester),
		})

	return &conn, nil
}

// Respond accepts or declines a pending connection on behalf of its receiver and
// notifies the requester.
func (s *ConnectionService) Respond(ctx context.Context, connectionID, responderID uint, accept bool) (*models.Connection, error) {
	db := s.db.WithContext(ctx)

	var conn models.Connection
	if err := db.Preload("Requester").Preload("Receiver").First(&conn, connectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("Connection request not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "Failed to load connection", err)
	}

	if conn.ReceiverID != responderID {
		return nil, apperr.NewForbidden("Not authorized to respond to this connection")
	}
	if conn.Status != models.StatusPending {
		return nil, apperr.NewConflict("Connection request has already been answered")
	}

	newStatus := models.StatusDeclined
	if accept {
		newStatus = models.StatusAccepted
	}
	now := time.Now()
	updates := map[string]any{"status": newStatus, "updated_at": now}
	if !accept {
		updates["active_pair_key"] = nil
	}

	// The status guard makes the transition a single atomic row update, so two
	// concurrent responses cannot both succeed.
	result := db.Model(&models.Connection{}).
		Where("id = ? AND status = ?", conn.ID, models.StatusPending).
		Updates(updates)
	if result.Error != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to update connection", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperr.NewConflict("Connection request has already been answered")
	}

	conn.Status = newStatus
	conn.UpdatedAt = now
	if !accept {
		conn.ActivePairKey = nil
	}

	typ := models.NotificationConnectionResponse
	verb := "declined"
	if accept {
		typ = models.NotificationConnectionAccepted
		verb = "accepted"
	}
	s.fanOut(ctx, conn.RequesterID, typ,
		fmt.Sprintf("%s %s your connection request", displayName(&conn.Receiver), verb),
		connectionResponsePayload{
			ConnectionID: conn.ID,
			UserID:       responderID,
			Status:       newStatus,
		})

	return &conn, nil
}

// StatusBetween returns the logical status between a and b from a's point of view.
func (s *ConnectionService) StatusBetween(ctx context.Context, a, b uint) (models.ConnectionStatus, error) {
	rel, err := s.RelationBetween(ctx, a, b)
	if err != nil {
		return "", err
	}
	return rel.Status, nil
}

// RelationBetween is StatusBetween plus the deciding row.
func (s *ConnectionService) RelationBetween(ctx context.Context, a, b uint) (Relation, error) {
	var rows []models.Connection
	err := s.db.WithContext(ctx).
		Where("pair_key = ?", models.PairKey(a, b)).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return Relation{}, apperr.Wrap(apperr.Internal, "Failed to load connections", err)
	}
	return resolveRelation(a, rows), nil
}

// RelationsFor resolves the viewer's relation with each of others in one query.
// Users without any row map to a NONE relation.
func (s *ConnectionService) RelationsFor(ctx context.Context, viewerID uint, others []uint) (map[uint]Relation, error) {
	result := make(map[uint]Relation, len(others))
	if len(others) == 0 {
		return result, nil
	}

	keys := make([]string, 0, len(others))
	for _, id := range others {
		keys = append(keys, models.PairKey(viewerID, id))
	}

	var rows []models.Connection
	err := s.db.WithContext(ctx).
		Where("pair_key IN ?", keys).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to load connections", err)
	}

	byOther := make(map[uint][]models.Connection)
	for _, row := range rows {
		other := row.OtherParty(viewerID)
		byOther[other] = append(byOther[other], row)
	}
	for _, id := range others {
		result[id] = resolveRelation(viewerID, byOther[id])
	}
	return result, nil
}

// resolveRelation picks the row that decides the relation. rows must be sorted
// newest first. Active rows beat declined history; if two rows compete the
// viewer's outgoing row wins. So a declined outgoing request does not hide a
// later pending request in the other direction.
func resolveRelation(viewerID uint, rows []models.Connection) Relation {
	candidates := make([]*models.Connection, 0, len(rows))
	for i := range rows {
		if rows[i].Status.Active() {
			candidates = append(candidates, &rows[i])
		}
	}
	if len(candidates) == 0 {
		for i := range rows {
			candidates = append(candidates, &rows[i])
		}
	}
	if len(candidates) == 0 {
		return Relation{Status: models.StatusNone}
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.RequesterID == viewerID && best.RequesterID != viewerID {
			best = c
		}
	}
	return Relation{
		Status:     best.Status,
		Connection: best,
		Outgoing:   best.RequesterID == viewerID,
	}
}

// ListAccepted returns userID's accepted connections, most recently accepted first.
func (s *ConnectionService) ListAccepted(ctx context.Context, userID uint) ([]ConnectionWithUser, error) {
	var rows []models.Connection
	err := s.db.WithContext(ctx).
		Preload("Requester").Preload("Receiver").
		Where("(requester_id = ? OR receiver_id = ?) AND status = ?", userID, userID, models.StatusAccepted).
		Order("updated_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to fetch connections", err)
	}
	return withOtherUser(userID, rows), nil
}

// ListPending returns PENDING requests received by (incoming) or sent by (outgoing) userID.
func (s *ConnectionService) ListPending(ctx context.Context, userID uint, direction Direction) ([]ConnectionWithUser, error) {
	query := s.db.WithContext(ctx).Preload("Requester").Preload("Receiver")

	switch direction {
	case DirectionIncoming:
		query = query.Where("receiver_id = ?", userID)
	case DirectionOutgoing:
		query = query.Where("requester_id = ?", userID)
	default:
		return nil, apperr.NewBadRequest("direction must be incoming or outgoing")
	}

	var rows []models.Connection
	err := query.Where("status = ?", models.StatusPending).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to fetch connection requests", err)
	}
	return withOtherUser(userID, rows), nil
}

// Get returns a connection visible to viewerID.
func (s *ConnectionService) Get(ctx context.Context, connectionID, viewerID uint) (*models.Connection, error) {
	var conn models.Connection
	if err := s.db.WithContext(ctx).Preload("Requester").Preload("Receiver").First(&conn, connectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("Connection not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "Failed to load connection", err)
	}
	if !conn.Involves(viewerID) {
		return nil, apperr.NewForbidden("Not authorized to view this connection")
	}
	return &conn, nil
}

// CountAccepted returns how many accepted connections userID has.
func (s *ConnectionService) CountAccepted(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Connection{}).
		Where("(requester_id = ? OR receiver_id = ?) AND status = ?", userID, userID, models.StatusAccepted).
		Count(&count).Error
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "Failed to count connections", err)
	}
	return count, nil
}

// fanOut is best effort: the transition is already committed and stays so.
func (s *ConnectionService) fanOut(ctx context.Context, recipientID uint, typ models.NotificationType, message string, payload any) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, recipientID, typ, message, payload); err != nil {
		s.logger.Error("Failed to create notification", "recipient", recipientID, "type", typ, "error", err)
	}
}

func withOtherUser(viewerID uint, rows []models.Connection) []ConnectionWithUser {
	out := make([]ConnectionWithUser, 0, len(rows))
	for _, r := range rows {
		other := r.Requester
		if r.RequesterID == viewerID {
			other = r.Receiver
		}
		// Skip rows whose counterpart was not loaded.
		if other.ID == 0 {
			continue
		}
		out = append(out, ConnectionWithUser{Connection: r, OtherUser: other})
	}
	return out
}

func findUser(db *gorm.DB, id uint, notFoundMessage string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound(notFoundMessage)
		}
		return nil, apperr.Wrap(apperr.Internal, "Failed to load user", err)
	}
	return &user, nil
}

func displayName(u *models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
