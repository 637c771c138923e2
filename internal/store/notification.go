package store

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
)

type notificationStore struct {
	client *firestore.Client
}

func NewNotificationStore(client *firestore.Client) *notificationStore {
	return &notificationStore{client: client}
}

func (s *notificationStore) collection(uid string) *firestore.CollectionRef {
	return notificationsCollection(s.client, uid)
}

func (s *notificationStore) Create(ctx context.Context, uid string, n *models.Notification) error {
	_, err := s.collection(uid).Doc(n.NotificationID).Set(ctx, n)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to create notification", err)
	}
	return nil
}

func (s *notificationStore) List(ctx context.Context, uid string, q dto.NotificationQuery) ([]*models.Notification, error) {
	query := s.collection(uid).Query
	if q.UnreadOnly {
		query = query.Where("read", "==", false)
	}
	query = query.OrderBy("createdAt", firestore.Desc)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	out := []*models.Notification{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to list notifications", err)
		}
		var n models.Notification
		if err := doc.DataTo(&n); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse notification data", err)
		}
		out = append(out, &n)
	}
	return out, nil
}

func (s *notificationStore) MarkRead(ctx context.Context, uid, id string) error {
	_, err := s.collection(uid).Doc(id).Update(ctx, []firestore.Update{{Path: "read", Value: true}})
	if err != nil {
		return readError(err, "notification not found", "failed to mark notification read")
	}
	return nil
}

// MarkAllRead flips every unread notification and returns how many changed.
func (s *notificationStore) MarkAllRead(ctx context.Context, uid string) (int, error) {
	log := logger.FromContext(ctx)
	refs, err := s.collection(uid).Where("read", "==", false).Documents(ctx).GetAll()
	if err != nil {
		return 0, errs.NewDatabaseError("read", "failed to list unread notifications", err)
	}
	if len(refs) == 0 {
		return 0, nil
	}

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, d := range refs {
		j, err := bw.Update(d.Ref, []firestore.Update{{Path: "read", Value: true}})
		if err != nil {
			bw.End()
			return 0, errs.NewDatabaseError("update", "failed to schedule notification update", err)
		}
		jobs = append(jobs, j)
	}
	bw.End()

	for i, j := range jobs {
		if _, err := j.Results(); err != nil {
			log.Error("failed to mark notification read", "notification_id", refs[i].Ref.ID, "error", err)
			return 0, errs.NewDatabaseError("update", "failed to mark notifications read", err)
		}
	}
	return len(jobs), nil
}

func (s *notificationStore) Delete(ctx context.Context, uid, id string) error {
	_, err := s.collection(uid).Doc(id).Delete(ctx)
	if err != nil {
		return errs.NewDatabaseError("delete", "failed to delete notification", err)
	}
	return nil
}
