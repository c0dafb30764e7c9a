// Package gormstore implements store.Store on top of gorm and postgres.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"socialgraph/backend/internal/models"
	"socialgraph/backend/internal/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is a gorm-backed store.Store. The zero value is not usable; use New.
type Store struct {
	db   *gorm.DB
	inTx bool
}

var _ store.Store = (*Store)(nil)

// New wraps an open gorm connection. The connection should be opened with
// TranslateError enabled so unique violations surface as store.ErrDuplicate.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// locking returns a row-lock clause when running inside a transaction.
func (s *Store) locking(q *gorm.DB, forUpdate bool) *gorm.DB {
	if forUpdate && s.inTx {
		return q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		// A referenced profile or post does not exist.
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}
	return err
}

// affected maps a write that touched no rows to ErrNotFound.
func affected(result *gorm.DB) error {
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) WithTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, inTx: true})
	})
}

// region --- Users ---

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.conn(ctx).Create(user).Error)
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) FindUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("nickname = ? OR email = ?", login, login).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) searchUsers(ctx context.Context, query string) *gorm.DB {
	q := s.conn(ctx).Model(&models.User{})
	if query != "" {
		q = q.Where("nickname ILIKE ?", "%"+query+"%")
	}
	return q
}

func (s *Store) SearchUsers(ctx context.Context, query string, offset, limit int) ([]models.User, error) {
	var users []models.User
	err := s.searchUsers(ctx, query).Order("id").Offset(offset).Limit(limit).Find(&users).Error
	return users, translate(err)
}

func (s *Store) CountUsers(ctx context.Context, query string) (int64, error) {
	var total int64
	err := s.searchUsers(ctx, query).Count(&total).Error
	return total, translate(err)
}

// endregion

// region --- Profiles ---

func (s *Store) CreateProfile(ctx context.Context, profile *models.Profile) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(profile).Error)
}

func (s *Store) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := s.conn(ctx).Preload("User").First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (s *Store) GetProfiles(ctx context.Context, ids []uint) ([]models.Profile, error) {
	if len(ids) == 0 {
		return []models.Profile{}, nil
	}
	var found []models.Profile
	if err := s.conn(ctx).Preload("User").Where("user_id IN ?", ids).Find(&found).Error; err != nil {
		return nil, translate(err)
	}

	byID := make(map[uint]models.Profile, len(found))
	for _, p := range found {
		byID[p.UserID] = p
	}
	profiles := make([]models.Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}

func (s *Store) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	result := s.conn(ctx).Model(profile).Select("Bio", "AvatarURL").Updates(profile)
	return affected(result)
}

func (s *Store) LockProfiles(ctx context.Context, ids ...uint) error {
	unique := uniqueSorted(ids)
	var profiles []models.Profile
	q := s.locking(s.conn(ctx), true)
	if err := q.Where("user_id IN ?", unique).Order("user_id").Find(&profiles).Error; err != nil {
		return translate(err)
	}
	if len(profiles) != len(unique) {
		return store.ErrNotFound
	}
	return nil
}

func uniqueSorted(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// endregion

// region --- Friendships ---

func (s *Store) InsertFriendship(ctx context.Context, a, b uint) error {
	rows := []models.Friendship{
		{UserID: a, FriendID: b},
		{UserID: b, FriendID: a},
	}
	err := s.conn(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	return translate(err)
}

func (s *Store) DeleteFriendship(ctx context.Context, a, b uint) error {
	err := s.conn(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a).
		Delete(&models.Friendship{}).Error
	return translate(err)
}

func (s *Store) FriendshipExists(ctx context.Context, a, b uint) (bool, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", a, b).
		Count(&count).Error
	return count > 0, translate(err)
}

func (s *Store) ListFriendIDs(ctx context.Context, userID uint, offset, limit int) ([]uint, error) {
	q := s.conn(ctx).Model(&models.Friendship{}).
		Where("user_id = ?", userID).
		Order("created_at, friend_id").
		Offset(offset)
	if limit >= 0 {
		q = q.Limit(limit)
	}
	ids := []uint{}
	err := q.Pluck("friend_id", &ids).Error
	return ids, translate(err)
}

func (s *Store) CountFriends(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Friendship{}).Where("user_id = ?", userID).Count(&count).Error
	return count, translate(err)
}

// mutual joins the two adjacency lists on the primary key index, so the cost
// follows the smaller friend set rather than the table size.
func (s *Store) mutual(ctx context.Context, a, b uint) *gorm.DB {
	return s.conn(ctx).
		Table("friendships AS fa").
		Joins("JOIN friendships AS fb ON fb.friend_id = fa.friend_id AND fb.user_id = ?", b).
		Where("fa.user_id = ?", a)
}

func (s *Store) ListMutualFriendIDs(ctx context.Context, a, b uint, offset, limit int) ([]uint, error) {
	ids := []uint{}
	if a == b {
		return ids, nil
	}
	q := s.mutual(ctx, a, b).Order("fa.friend_id").Offset(offset)
	if limit >= 0 {
		q = q.Limit(limit)
	}
	err := q.Pluck("fa.friend_id", &ids).Error
	return ids, translate(err)
}

func (s *Store) CountMutualFriends(ctx context.Context, a, b uint) (int64, error) {
	if a == b {
		return 0, nil
	}
	var count int64
	err := s.mutual(ctx, a, b).Count(&count).Error
	return count, translate(err)
}

// endregion

// region --- Friend requests ---

func (s *Store) CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(req).Error)
}

func (s *Store) GetFriendRequest(ctx context.Context, id uint, forUpdate bool) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := s.locking(s.conn(ctx), forUpdate).First(&req, id).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (s *Store) FindFriendRequest(ctx context.Context, senderID, receiverID uint, forUpdate bool) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := s.locking(s.conn(ctx), forUpdate).
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		First(&req).Error
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (s *Store) UpdateFriendRequestStatus(ctx context.Context, id uint, status models.FriendRequestStatus) error {
	result := s.conn(ctx).Model(&models.FriendRequest{}).Where("id = ?", id).Update("status", status)
	return affected(result)
}

func (s *Store) DeleteFriendRequest(ctx context.Context, id uint) error {
	return affected(s.conn(ctx).Delete(&models.FriendRequest{}, id))
}

func (s *Store) DeleteFriendRequestsBetween(ctx context.Context, a, b uint) error {
	err := s.conn(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Delete(&models.FriendRequest{}).Error
	return translate(err)
}

func (s *Store) requests(ctx context.Context, filter store.RequestFilter) *gorm.DB {
	q := s.conn(ctx).Model(&models.FriendRequest{})
	switch filter.Direction {
	case store.Incoming:
		q = q.Where("receiver_id = ?", filter.UserID)
	case store.Outgoing:
		q = q.Where("sender_id = ?", filter.UserID)
	default:
		q = q.Where("sender_id = ? OR receiver_id = ?", filter.UserID, filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	return q
}

func (s *Store) ListFriendRequests(ctx context.Context, filter store.RequestFilter, offset, limit int) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := s.requests(ctx, filter).Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&reqs).Error
	return reqs, translate(err)
}

func (s *Store) CountFriendRequests(ctx context.Context, filter store.RequestFilter) (int64, error) {
	var count int64
	err := s.requests(ctx, filter).Count(&count).Error
	return count, translate(err)
}

// endregion

// region --- Posts & comments ---

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(post).Error)
}

func (s *Store) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.conn(ctx).First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// DeletePost relies on the foreign keys to cascade to comments and reactions.
func (s *Store) DeletePost(ctx context.Context, id uint) error {
	return affected(s.conn(ctx).Delete(&models.Post{}, id))
}

func (s *Store) ListPostsByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := s.conn(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, translate(err)
}

func (s *Store) CountPostsByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, translate(err)
}

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(comment).Error)
}

func (s *Store) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.conn(ctx).First(&comment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

func (s *Store) DeleteComment(ctx context.Context, id uint) error {
	return affected(s.conn(ctx).Delete(&models.Comment{}, id))
}

func (s *Store) ListComments(ctx context.Context, postID uint, offset, limit int) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.conn(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Offset(offset).Limit(limit).
		Find(&comments).Error
	return comments, translate(err)
}

func (s *Store) CountComments(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&count).Error
	return count, translate(err)
}

// endregion

// region --- Reactions ---

func (s *Store) UpsertReaction(ctx context.Context, reaction *models.Reaction) error {
	err := s.conn(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind", "updated_at"}),
		}).
		Create(reaction).Error
	return translate(err)
}

func (s *Store) GetReaction(ctx context.Context, postID, userID uint) (*models.Reaction, error) {
	var reaction models.Reaction
	err := s.conn(ctx).Where("post_id = ? AND user_id = ?", postID, userID).First(&reaction).Error
	if err != nil {
		return nil, translate(err)
	}
	return &reaction, nil
}

func (s *Store) ReactionExists(ctx context.Context, postID, userID uint) (bool, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Reaction{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	return count > 0, translate(err)
}

func (s *Store) DeleteReaction(ctx context.Context, postID, userID uint) error {
	result := s.conn(ctx).Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Reaction{})
	return affected(result)
}

func (s *Store) CountReactionsByKind(ctx context.Context, postID uint) (map[models.ReactionKind]int64, error) {
	var rows []struct {
		Kind  models.ReactionKind
		Total int64
	}
	err := s.conn(ctx).Model(&models.Reaction{}).
		Select("kind, COUNT(*) AS total").
		Where("post_id = ?", postID).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	counts := make(map[models.ReactionKind]int64, len(rows))
	for _, r := range rows {
		counts[r.Kind] = r.Total
	}
	return counts, nil
}

// endregion
