package memory

import (
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/repository"
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type pairKey struct{ a, b int64 }

// state holds every table. It is only touched while MemStorage.mu is held.
type state struct {
	seq          int64
	users        map[int64]*domain.User
	maps         map[int64]*domain.Map
	userMaps     map[int64][]int64
	places       map[int64]*domain.Place
	tags         map[int64]*domain.Tag
	mapTags      map[pairKey]struct{} // map, tag
	countries    map[int64]*domain.Country
	mapCountries map[pairKey]*domain.MapCountry // map, country
	likes        map[pairKey]time.Time          // user, map
	refresh      map[string]*domain.RefreshToken
}

func newState() *state {
	return &state{
		users:        make(map[int64]*domain.User),
		maps:         make(map[int64]*domain.Map),
		userMaps:     make(map[int64][]int64),
		places:       make(map[int64]*domain.Place),
		tags:         make(map[int64]*domain.Tag),
		mapTags:      make(map[pairKey]struct{}),
		countries:    make(map[int64]*domain.Country),
		mapCountries: make(map[pairKey]*domain.MapCountry),
		likes:        make(map[pairKey]time.Time),
		refresh:      make(map[string]*domain.RefreshToken),
	}
}

func (st *state) clone() *state {
	c := newState()
	c.seq = st.seq
	for k, v := range st.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range st.maps {
		m := *v
		c.maps[k] = &m
	}
	for k, v := range st.userMaps {
		c.userMaps[k] = append([]int64(nil), v...)
	}
	for k, v := range st.places {
		p := *v
		c.places[k] = &p
	}
	for k, v := range st.tags {
		t := *v
		c.tags[k] = &t
	}
	for k := range st.mapTags {
		c.mapTags[k] = struct{}{}
	}
	for k, v := range st.countries {
		cn := *v
		c.countries[k] = &cn
	}
	for k, v := range st.mapCountries {
		mc := *v
		c.mapCountries[k] = &mc
	}
	for k, v := range st.likes {
		c.likes[k] = v
	}
	for k, v := range st.refresh {
		rt := *v
		c.refresh[k] = &rt
	}
	return c
}

func (st *state) nextID() int64 {
	st.seq++
	return st.seq
}

// MemStorage is an in-process Storage used by tests and local runs.
type MemStorage struct {
	mu sync.Mutex
	st *state
}

func New() *MemStorage {
	return &MemStorage{st: newState()}
}

var _ repository.Storage = (*MemStorage)(nil)

// WithinTx runs fn against a copy of the tables and swaps it in on success.
// Transactions are serialized.
func (s *MemStorage) WithinTx(_ context.Context, fn func(tx repository.Storage) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&txStorage{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// run executes a single operation as its own transaction.
func (s *MemStorage) run(fn func(tx *txStorage) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&txStorage{st: s.st})
}

// txStorage operates on one state without locking. Single operations write
// straight into the live state; they validate before mutating, so a failed
// call leaves the state untouched.
type txStorage struct {
	st *state
}

var _ repository.Storage = (*txStorage)(nil)

func (t *txStorage) WithinTx(_ context.Context, fn func(tx repository.Storage) error) error {
	return fn(t)
}

// --- User Methods ---

func (t *txStorage) CreateUser(_ context.Context, user *domain.User) error {
	for _, u := range t.st.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.Conflict("account with this email already exists")
		}
		if u.Name == user.Name {
			return domain.Conflict("account with this name already exists")
		}
	}
	user.ID = t.st.nextID()
	user.CreatedAt = time.Now()
	u := *user
	u.Maps, u.LikedMaps = nil, nil
	t.st.users[user.ID] = &u
	return nil
}

func (t *txStorage) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return nil, domain.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (t *txStorage) findUser(match func(u *domain.User) bool) (*domain.User, error) {
	for _, u := range t.st.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.NotFound("user not found")
}

func (t *txStorage) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	return t.findUser(func(u *domain.User) bool { return u.Email == email })
}

func (t *txStorage) GetUserByName(_ context.Context, name string) (*domain.User, error) {
	return t.findUser(func(u *domain.User) bool { return u.Name == name })
}

func (t *txStorage) GetUserByVerificationToken(_ context.Context, token string) (*domain.User, error) {
	return t.findUser(func(u *domain.User) bool {
		return u.VerificationToken != nil && *u.VerificationToken == token
	})
}

func (t *txStorage) GetUserByResetToken(_ context.Context, token string) (*domain.User, error) {
	return t.findUser(func(u *domain.User) bool {
		return u.ResetPasswordToken != nil && *u.ResetPasswordToken == token
	})
}

func (t *txStorage) UpdateUser(_ context.Context, user *domain.User) error {
	if _, ok := t.st.users[user.ID]; !ok {
		return domain.NotFound("user not found")
	}
	for id, u := range t.st.users {
		if id != user.ID && (u.Name == user.Name || strings.EqualFold(u.Email, user.Email)) {
			return domain.Conflict("account with this email or name already exists")
		}
	}
	u := *user
	u.Maps, u.LikedMaps = nil, nil
	t.st.users[user.ID] = &u
	return nil
}

func (t *txStorage) DeleteUser(_ context.Context, id int64) error {
	if _, ok := t.st.users[id]; !ok {
		return domain.NotFound("user not found")
	}
	if len(t.st.userMaps[id]) > 0 {
		return domain.Dependency("failed to delete user", errForeignKey)
	}
	delete(t.st.users, id)
	delete(t.st.userMaps, id)
	for k, rt := range t.st.refresh {
		if rt.UserID == id {
			delete(t.st.refresh, k)
		}
	}
	return nil
}

func (t *txStorage) LockUser(_ context.Context, id int64) error {
	if _, ok := t.st.users[id]; !ok {
		return domain.NotFound("user not found")
	}
	return nil
}

// --- Map Methods ---

func (t *txStorage) CreateMap(_ context.Context, m *domain.Map) error {
	if _, ok := t.st.users[m.CreatorID]; !ok {
		return domain.Dependency("failed to create map", errForeignKey)
	}
	m.ID = t.st.nextID()
	now := time.Now()
	m.CreatedAt, m.UpdatedAt = now, now
	t.st.maps[m.ID] = stripMap(m)
	t.st.userMaps[m.CreatorID] = append(t.st.userMaps[m.CreatorID], m.ID)
	return nil
}

func (t *txStorage) GetMap(_ context.Context, id int64) (*domain.Map, error) {
	m, ok := t.st.maps[id]
	if !ok {
		return nil, domain.NotFound("map not found")
	}
	cp := *m
	cp.Tags = t.mapTags(id)
	cp.Countries = t.mapCountries(id)
	return &cp, nil
}

func (t *txStorage) GetMapWithDetails(ctx context.Context, id int64) (*domain.Map, error) {
	m, err := t.GetMap(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Places, _ = t.ListPlaces(ctx, id)
	for k, at := range t.st.likes {
		if k.b == id {
			m.Likers = append(m.Likers, domain.UserMapLike{UserID: k.a, MapID: id, CreatedAt: at})
		}
	}
	sort.Slice(m.Likers, func(i, j int) bool { return m.Likers[i].UserID < m.Likers[j].UserID })
	return m, nil
}

func (t *txStorage) UpdateMap(_ context.Context, m *domain.Map) error {
	cur, ok := t.st.maps[m.ID]
	if !ok {
		return domain.NotFound("map not found")
	}
	cur.Name = m.Name
	cur.Description = m.Description
	cur.Uploaded = m.Uploaded
	cur.PublicationDate = m.PublicationDate
	cur.Thumbnail = m.Thumbnail
	cur.ThumbnailDigest = m.ThumbnailDigest
	cur.UpdatedAt = time.Now()
	return nil
}

func (t *txStorage) SetMapUploaded(_ context.Context, id int64, uploaded bool) error {
	m, ok := t.st.maps[id]
	if !ok {
		return domain.NotFound("map not found")
	}
	m.Uploaded = uploaded
	return nil
}

func (t *txStorage) DeleteMap(_ context.Context, id int64) error {
	if _, ok := t.st.maps[id]; !ok {
		return domain.NotFound("map not found")
	}
	for _, p := range t.st.places {
		if p.MapID == id {
			return domain.Dependency("failed to delete map", errForeignKey)
		}
	}
	for k := range t.st.mapTags {
		if k.a == id {
			return domain.Dependency("failed to delete map", errForeignKey)
		}
	}
	for k := range t.st.mapCountries {
		if k.a == id {
			return domain.Dependency("failed to delete map", errForeignKey)
		}
	}
	for k := range t.st.likes {
		if k.b == id {
			return domain.Dependency("failed to delete map", errForeignKey)
		}
	}
	delete(t.st.maps, id)
	return nil
}

func (t *txStorage) CountMapsCreatedOn(_ context.Context, ownerID int64, date string) (int64, error) {
	var n int64
	for _, m := range t.st.maps {
		if m.CreatorID == ownerID && m.CreationDate == date {
			n++
		}
	}
	return n, nil
}

func (t *txStorage) DetachMapFromCreator(_ context.Context, creatorID, mapID int64) error {
	ids := t.st.userMaps[creatorID]
	for i, id := range ids {
		if id == mapID {
			t.st.userMaps[creatorID] = append(ids[:i:i], ids[i+1:]...)
			return nil
		}
	}
	return nil
}

func (t *txStorage) IncrementMapLikes(_ context.Context, mapID int64) (domain.RefCount, error) {
	m, ok := t.st.maps[mapID]
	if !ok {
		return 0, domain.NotFound("map not found")
	}
	m.Likes = m.Likes.Attach()
	return m.Likes, nil
}

func (t *txStorage) DecrementMapLikes(_ context.Context, mapID int64) (domain.RefCount, error) {
	m, ok := t.st.maps[mapID]
	if !ok {
		return 0, domain.NotFound("map not found")
	}
	m.Likes = m.Likes.Detach()
	return m.Likes, nil
}

func (t *txStorage) AdjustMapPlaces(_ context.Context, mapID int64, delta int) error {
	m, ok := t.st.maps[mapID]
	if !ok {
		return domain.NotFound("map not found")
	}
	m.PlacesQuantity += delta
	if m.PlacesQuantity < 0 {
		m.PlacesQuantity = 0
	}
	return nil
}

func (t *txStorage) ListPublishedMaps(_ context.Context, filter domain.MapFilter, page domain.Page) ([]domain.Map, error) {
	return t.pageOf(func(m *domain.Map) bool {
		return m.Uploaded && t.matches(m, filter)
	}, page), nil
}

func (t *txStorage) ListUserMaps(_ context.Context, userID int64, uploaded bool, page domain.Page) ([]domain.Map, error) {
	return t.pageOf(func(m *domain.Map) bool {
		return m.CreatorID == userID && m.Uploaded == uploaded
	}, page), nil
}

func (t *txStorage) ListUserMapIDs(_ context.Context, userID int64) ([]int64, error) {
	return append([]int64(nil), t.st.userMaps[userID]...), nil
}

func (t *txStorage) matches(m *domain.Map, filter domain.MapFilter) bool {
	for _, term := range filter.Terms {
		hit := m.Name != nil && strings.Contains(*m.Name, term)
		if !hit {
			for _, tag := range t.mapTags(m.ID) {
				if strings.Contains(tag.Name, term) {
					hit = true
					break
				}
			}
		}
		if !hit {
			return false
		}
	}
	if filter.Country != "" {
		found := false
		for _, mc := range t.mapCountries(m.ID) {
			if mc.Country != nil && mc.Country.Name == filter.Country {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Places != domain.PlacesAny {
		lo, hi := filter.Places.Bounds()
		if m.PlacesQuantity < lo || (hi >= 0 && m.PlacesQuantity > hi) {
			return false
		}
	}
	return true
}

// pageOf returns matching maps ordered by id with creator and tags attached.
func (t *txStorage) pageOf(match func(m *domain.Map) bool, page domain.Page) []domain.Map {
	var ids []int64
	for id, m := range t.st.maps {
		if match(m) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]domain.Map, 0, page.Size)
	for i := page.Offset(); i < len(ids) && len(result) < page.Size; i++ {
		m := *t.st.maps[ids[i]]
		m.Tags = t.mapTags(m.ID)
		if u, ok := t.st.users[m.CreatorID]; ok {
			cp := *u
			m.Creator = &cp
		}
		result = append(result, m)
	}
	return result
}

func (t *txStorage) mapTags(mapID int64) []domain.Tag {
	var tags []domain.Tag
	for k := range t.st.mapTags {
		if k.a == mapID {
			tags = append(tags, *t.st.tags[k.b])
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
	return tags
}

func (t *txStorage) mapCountries(mapID int64) []domain.MapCountry {
	var list []domain.MapCountry
	for k, mc := range t.st.mapCountries {
		if k.a == mapID {
			cp := *mc
			c := *t.st.countries[k.b]
			cp.Country = &c
			list = append(list, cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CountryID < list[j].CountryID })
	return list
}

// --- Place Methods ---

func (t *txStorage) CreatePlace(_ context.Context, p *domain.Place) error {
	if _, ok := t.st.maps[p.MapID]; !ok {
		return domain.Dependency("failed to create place", errForeignKey)
	}
	p.ID = t.st.nextID()
	cp := *p
	t.st.places[p.ID] = &cp
	return nil
}

func (t *txStorage) GetPlace(_ context.Context, id int64) (*domain.Place, error) {
	p, ok := t.st.places[id]
	if !ok {
		return nil, domain.NotFound("place not found")
	}
	cp := *p
	return &cp, nil
}

func (t *txStorage) UpdatePlace(_ context.Context, p *domain.Place) error {
	if _, ok := t.st.places[p.ID]; !ok {
		return domain.NotFound("place not found")
	}
	cp := *p
	t.st.places[p.ID] = &cp
	return nil
}

func (t *txStorage) DeletePlace(_ context.Context, id int64) error {
	if _, ok := t.st.places[id]; !ok {
		return domain.NotFound("place not found")
	}
	delete(t.st.places, id)
	return nil
}

func (t *txStorage) ListPlaces(_ context.Context, mapID int64) ([]domain.Place, error) {
	var list []domain.Place
	for _, p := range t.st.places {
		if p.MapID == mapID {
			list = append(list, *p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (t *txStorage) DeletePlacesByMap(_ context.Context, mapID int64) error {
	for id, p := range t.st.places {
		if p.MapID == mapID {
			delete(t.st.places, id)
		}
	}
	return nil
}

// --- Tag Methods ---

func (t *txStorage) GetTagByName(_ context.Context, name string) (*domain.Tag, error) {
	for _, tag := range t.st.tags {
		if tag.Name == name {
			cp := *tag
			return &cp, nil
		}
	}
	return nil, domain.NotFound("tag not found")
}

func (t *txStorage) CreateTag(_ context.Context, name string, mapID int64) (*domain.Tag, error) {
	if _, ok := t.st.maps[mapID]; !ok {
		return nil, domain.Dependency("failed to create tag", errForeignKey)
	}
	for _, tag := range t.st.tags {
		if tag.Name == name {
			return nil, domain.Conflict("tag already exists")
		}
	}
	tag := &domain.Tag{ID: t.st.nextID(), Name: name}
	tag.Quantity = tag.Quantity.Attach()
	t.st.tags[tag.ID] = tag
	t.st.mapTags[pairKey{mapID, tag.ID}] = struct{}{}
	cp := *tag
	return &cp, nil
}

func (t *txStorage) IsTagLinked(_ context.Context, tagID, mapID int64) (bool, error) {
	_, ok := t.st.mapTags[pairKey{mapID, tagID}]
	return ok, nil
}

func (t *txStorage) AttachTag(_ context.Context, tagID, mapID int64) (domain.RefCount, error) {
	tag, ok := t.st.tags[tagID]
	if !ok {
		return 0, domain.NotFound("tag not found")
	}
	if _, ok := t.st.maps[mapID]; !ok {
		return 0, domain.Dependency("failed to link tag", errForeignKey)
	}
	key := pairKey{mapID, tagID}
	if _, linked := t.st.mapTags[key]; linked {
		return 0, domain.Dependency("failed to link tag", errDuplicateKey)
	}
	t.st.mapTags[key] = struct{}{}
	tag.Quantity = tag.Quantity.Attach()
	return tag.Quantity, nil
}

func (t *txStorage) DetachTag(_ context.Context, tagID, mapID int64) (domain.RefCount, error) {
	tag, ok := t.st.tags[tagID]
	if !ok {
		return 0, domain.NotFound("tag not found")
	}
	key := pairKey{mapID, tagID}
	if _, linked := t.st.mapTags[key]; !linked {
		return tag.Quantity, domain.NotFound("tag is not linked to map")
	}
	delete(t.st.mapTags, key)
	tag.Quantity = tag.Quantity.Detach()
	return tag.Quantity, nil
}

func (t *txStorage) DeleteTag(_ context.Context, tagID int64) error {
	if _, ok := t.st.tags[tagID]; !ok {
		return domain.NotFound("tag not found")
	}
	for k := range t.st.mapTags {
		if k.b == tagID {
			return domain.Dependency("failed to delete tag", errForeignKey)
		}
	}
	delete(t.st.tags, tagID)
	return nil
}

func (t *txStorage) ListMapTags(_ context.Context, mapID int64) ([]domain.Tag, error) {
	return t.mapTags(mapID), nil
}

func (t *txStorage) PopularTags(_ context.Context, limit int) ([]domain.Tag, error) {
	tags := make([]domain.Tag, 0, len(t.st.tags))
	for _, tag := range t.st.tags {
		tags = append(tags, *tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Quantity != tags[j].Quantity {
			return tags[i].Quantity > tags[j].Quantity
		}
		return tags[i].ID < tags[j].ID
	})
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags, nil
}

// --- Country Methods ---

func (t *txStorage) GetCountryByName(_ context.Context, name string) (*domain.Country, error) {
	for _, c := range t.st.countries {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.NotFound("country not found")
}

func (t *txStorage) CreateCountry(_ context.Context, name string) (*domain.Country, error) {
	for _, c := range t.st.countries {
		if c.Name == name {
			return nil, domain.Conflict("country already exists")
		}
	}
	c := &domain.Country{ID: t.st.nextID(), Name: name}
	t.st.countries[c.ID] = c
	cp := *c
	return &cp, nil
}

func (t *txStorage) ListCountryNames(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(t.st.countries))
	for _, c := range t.st.countries {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (t *txStorage) GetMapCountry(_ context.Context, mapID, countryID int64) (*domain.MapCountry, error) {
	mc, ok := t.st.mapCountries[pairKey{mapID, countryID}]
	if !ok {
		return nil, domain.NotFound("map country not found")
	}
	cp := *mc
	return &cp, nil
}

func (t *txStorage) CreateMapCountry(_ context.Context, mapID, countryID int64) error {
	if _, ok := t.st.maps[mapID]; !ok {
		return domain.Dependency("failed to create map country", errForeignKey)
	}
	if _, ok := t.st.countries[countryID]; !ok {
		return domain.Dependency("failed to create map country", errForeignKey)
	}
	key := pairKey{mapID, countryID}
	if _, ok := t.st.mapCountries[key]; ok {
		return domain.Dependency("failed to create map country", errDuplicateKey)
	}
	mc := &domain.MapCountry{MapID: mapID, CountryID: countryID}
	mc.ConnectionCount = mc.ConnectionCount.Attach()
	t.st.mapCountries[key] = mc
	return nil
}

func (t *txStorage) AttachMapCountry(_ context.Context, mapID, countryID int64) (domain.RefCount, error) {
	mc, ok := t.st.mapCountries[pairKey{mapID, countryID}]
	if !ok {
		return 0, domain.NotFound("map country not found")
	}
	mc.ConnectionCount = mc.ConnectionCount.Attach()
	return mc.ConnectionCount, nil
}

func (t *txStorage) DetachMapCountry(_ context.Context, mapID, countryID int64) (domain.RefCount, error) {
	mc, ok := t.st.mapCountries[pairKey{mapID, countryID}]
	if !ok {
		return 0, domain.NotFound("map country not found")
	}
	mc.ConnectionCount = mc.ConnectionCount.Detach()
	return mc.ConnectionCount, nil
}

func (t *txStorage) DeleteMapCountry(_ context.Context, mapID, countryID int64) error {
	delete(t.st.mapCountries, pairKey{mapID, countryID})
	return nil
}

func (t *txStorage) DeleteMapCountries(_ context.Context, mapID int64) error {
	for k := range t.st.mapCountries {
		if k.a == mapID {
			delete(t.st.mapCountries, k)
		}
	}
	return nil
}

// --- Like Methods ---

func (t *txStorage) HasLike(_ context.Context, userID, mapID int64) (bool, error) {
	_, ok := t.st.likes[pairKey{userID, mapID}]
	return ok, nil
}

func (t *txStorage) CreateLike(_ context.Context, userID, mapID int64) error {
	if _, ok := t.st.maps[mapID]; !ok {
		return domain.Dependency("failed to create like", errForeignKey)
	}
	if _, ok := t.st.users[userID]; !ok {
		return domain.Dependency("failed to create like", errForeignKey)
	}
	key := pairKey{userID, mapID}
	if _, ok := t.st.likes[key]; ok {
		return domain.Conflict("map is already liked")
	}
	t.st.likes[key] = time.Now()
	return nil
}

func (t *txStorage) DeleteLike(_ context.Context, userID, mapID int64) error {
	key := pairKey{userID, mapID}
	if _, ok := t.st.likes[key]; !ok {
		return domain.NotFound("like not found")
	}
	delete(t.st.likes, key)
	return nil
}

func (t *txStorage) DeleteLikesByMap(_ context.Context, mapID int64) error {
	for k := range t.st.likes {
		if k.b == mapID {
			delete(t.st.likes, k)
		}
	}
	return nil
}

func (t *txStorage) ListLikedMapIDs(_ context.Context, userID int64) ([]int64, error) {
	var ids []int64
	for k := range t.st.likes {
		if k.a == userID {
			ids = append(ids, k.b)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (t *txStorage) ListLikedMaps(_ context.Context, userID int64, page domain.Page) ([]domain.Map, error) {
	return t.pageOf(func(m *domain.Map) bool {
		_, liked := t.st.likes[pairKey{userID, m.ID}]
		return liked && m.Uploaded
	}, page), nil
}

func stripMap(m *domain.Map) *domain.Map {
	cp := *m
	cp.Creator, cp.Places, cp.Tags, cp.Countries, cp.Likers = nil, nil, nil, nil, nil
	return &cp
}

// --- Refresh Token Methods ---

func (t *txStorage) CreateRefreshToken(_ context.Context, token *domain.RefreshToken) error {
	if _, ok := t.st.users[token.UserID]; !ok {
		return domain.Dependency("failed to create refresh token", errForeignKey)
	}
	if _, ok := t.st.refresh[token.Token]; ok {
		return domain.Dependency("failed to create refresh token", errDuplicateKey)
	}
	token.ID = t.st.nextID()
	token.CreatedAt = time.Now()
	rt := *token
	rt.User = nil
	t.st.refresh[token.Token] = &rt
	return nil
}

func (t *txStorage) GetRefreshToken(_ context.Context, token string) (*domain.RefreshToken, error) {
	rt, ok := t.st.refresh[token]
	if !ok {
		return nil, domain.NotFound("refresh token not found")
	}
	cp := *rt
	return &cp, nil
}

func (t *txStorage) RevokeRefreshToken(_ context.Context, token string, at time.Time) error {
	rt, ok := t.st.refresh[token]
	if !ok {
		return domain.NotFound("refresh token not found")
	}
	rt.IsRevoked = true
	rt.LastUsedAt = &at
	return nil
}

func (t *txStorage) RevokeUserRefreshTokens(_ context.Context, userID int64) error {
	for _, rt := range t.st.refresh {
		if rt.UserID == userID {
			rt.IsRevoked = true
		}
	}
	return nil
}
