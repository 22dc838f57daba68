package http

import (
	"MapHub-Backend/internal/auth"
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/handler/request"
	"MapHub-Backend/internal/handler/response"
	"MapHub-Backend/internal/service"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// MapsHandler обработчик для работы с картами
type MapsHandler struct {
	maps           *service.MapService
	likes          *service.LikeLedger
	maxUploadBytes int64
	log            *zap.Logger
}

// NewMapsHandler создает новый обработчик карт
func NewMapsHandler(maps *service.MapService, likes *service.LikeLedger, maxUploadBytes int64, log *zap.Logger) *MapsHandler {
	return &MapsHandler{
		maps:           maps,
		likes:          likes,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

// CreateMapResponse структура ответа создания карты
type CreateMapResponse struct {
	ID int64 `json:"id"`
}

// AddCountryRequest структура запроса привязки страны
type AddCountryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// LikeResponse текущее число лайков карты
type LikeResponse struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}

// Create создает пустую карту
//
//	@Summary		Create a map
//	@Description	Create an empty draft map, limited per user per day
//	@Tags			Maps
//	@Produce		json
//	@Security		BearerAuth
//	@Success		201	{object}	response.Envelope{data=CreateMapResponse}	"Map created"
//	@Failure		401	{object}	response.Envelope	"Authentication required"
//	@Failure		409	{object}	response.Envelope	"Daily quota reached"
//	@Router			/api/maps [post]
func (h *MapsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	id, err := h.maps.Create(r.Context(), userID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	response.JSON(w, h.log, http.StatusCreated, CreateMapResponse{ID: id})
}

// Save сохраняет карту целиком
//
//	@Summary		Save a map
//	@Description	Replace name, description, tags and publication state. Text and the thumbnail are moderated.
//	@Tags			Maps
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			mapID		path		int		true	"Map ID"
//	@Param			name		formData	string	true	"Map name"
//	@Param			description	formData	string	true	"Map description"
//	@Param			tags		formData	string	false	"Comma-separated tags"
//	@Param			published	formData	bool	false	"Publish the map"
//	@Param			thumbnail	formData	file	false	"Thumbnail image"
//	@Success		200			{object}	response.Envelope	"Map saved"
//	@Failure		400			{object}	response.Envelope	"Invalid request data"
//	@Failure		403			{object}	response.Envelope	"Not the map owner"
//	@Failure		422			{object}	response.Envelope	"Content rejected by moderation"
//	@Router			/api/maps/{mapID} [put]
func (h *MapsHandler) Save(w http.ResponseWriter, r *http.Request) {
	mapID, ok := h.ownedMap(w, r)
	if !ok {
		return
	}

	thumbnail, err := request.FormFile(r, "thumbnail", h.maxUploadBytes)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	published := false
	if raw := r.FormValue("published"); raw != "" {
		published, err = strconv.ParseBool(raw)
		if err != nil {
			response.Error(w, h.log, domain.Validation("published", "invalid published flag"))
			return
		}
	}

	in := service.SaveMapInput{
		MapID:       mapID,
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Tags:        formList(r, "tags"),
		Published:   published,
		Thumbnail:   thumbnail,
	}
	if err := h.maps.Save(r.Context(), in); err != nil {
		response.Error(w, h.log, err)
		return
	}

	response.JSON(w, h.log, http.StatusOK, nil)
}

// Publish публикует карту
//
//	@Summary	Publish a map
//	@Tags		Maps
//	@Produce	json
//	@Security	BearerAuth
//	@Param		mapID	path		int	true	"Map ID"
//	@Success	200		{object}	response.Envelope	"Map published"
//	@Router		/api/maps/{mapID}/publish [post]
func (h *MapsHandler) Publish(w http.ResponseWriter, r *http.Request) {
	mapID, ok := h.ownedMap(w, r)
	if !ok {
		return
	}
	if err := h.maps.Publish(r.Context(), mapID); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, nil)
}

// MoveToDraft снимает карту с публикации
//
//	@Summary	Move a map back to drafts
//	@Tags		Maps
//	@Produce	json
//	@Security	BearerAuth
//	@Param		mapID	path		int	true	"Map ID"
//	@Success	200		{object}	response.Envelope	"Map moved to drafts"
//	@Router		/api/maps/{mapID}/draft [post]
func (h *MapsHandler) MoveToDraft(w http.ResponseWriter, r *http.Request) {
	mapID, ok := h.ownedMap(w, r)
	if !ok {
		return
	}
	if err := h.maps.MoveToDraft(r.Context(), mapID); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, nil)
}

// Delete удаляет карту со всеми местами, тегами, странами и лайками
//
//	@Summary		Delete a map
//	@Description	Delete the map and everything attached to it. Failed blob releases are reported.
//	@Tags			Maps
//	@Produce		json
//	@Security		BearerAuth
//	@Param			mapID	path		int	true	"Map ID"
//	@Success		200		{object}	response.Envelope{data=domain.CleanupReport}	"Map deleted"
//	@Failure		403		{object}	response.Envelope	"Not the map owner"
//	@Failure		404		{object}	response.Envelope	"Map not found"
//	@Router			/api/maps/{mapID} [delete]
func (h *MapsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mapID, ok := h.ownedMap(w, r)
	if !ok {
		return
	}

	report, err := h.maps.Delete(r.Context(), mapID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, report)
}

// Details возвращает карту. Черновики видит только автор.
//
//	@Summary	Get map details
//	@Tags		Maps
//	@Produce	json
//	@Param		mapID	path		int	true	"Map ID"
//	@Success	200		{object}	response.Envelope{data=domain.MapDetails}	"Map details"
//	@Failure	404		{object}	response.Envelope	"Map not found"
//	@Router		/api/maps/{mapID} [get]
func (h *MapsHandler) Details(w http.ResponseWriter, r *http.Request) {
	mapID, err := request.IDParam(r, "mapID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	details, err := h.maps.GetDetails(r.Context(), mapID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if !details.Uploaded {
		if userID, ok := auth.GetUserIDFromContext(r.Context()); !ok || userID != details.CreatorID {
			response.Error(w, h.log, domain.NotFound("map not found"))
			return
		}
	}

	response.JSON(w, h.log, http.StatusOK, details)
}

// Search ищет опубликованные карты
//
//	@Summary		Search published maps
//	@Description	Every term must match the name, the description or a tag
//	@Tags			Maps
//	@Produce		json
//	@Param			q		query		string	false	"Space-separated search terms"
//	@Param			country	query		string	false	"Country name"
//	@Param			places	query		int		false	"Places bucket: 1 (<5), 2 (5-10), 3 (11-15), 4 (16-20), 5 (>20)"
//	@Param			page	query		int		false	"Page number"
//	@Success		200		{object}	response.Envelope{data=[]domain.MapCard}	"Matching maps"
//	@Router			/api/maps [get]
func (h *MapsHandler) Search(w http.ResponseWriter, r *http.Request) {
	places, err := request.IntQuery(r, "places", int(domain.PlacesAny))
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if places < int(domain.PlacesAny) || places > int(domain.PlacesOver20) {
		response.Error(w, h.log, domain.Validation("places", "unknown places bucket"))
		return
	}
	page, err := request.IntQuery(r, "page", 1)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	filter := domain.MapFilter{
		Terms:   strings.Fields(r.URL.Query().Get("q")),
		Country: strings.TrimSpace(r.URL.Query().Get("country")),
		Places:  domain.PlacesBucket(places),
	}
	cards, err := h.maps.Search(r.Context(), filter, page)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, cards)
}

// UserMaps список карт текущего пользователя
//
//	@Summary	List own maps
//	@Tags		Maps
//	@Produce	json
//	@Security	BearerAuth
//	@Param		published	query		bool	false	"Published maps instead of drafts"
//	@Param		page		query		int		false	"Page number"
//	@Success	200			{object}	response.Envelope{data=[]domain.MapSummary}	"User maps"
//	@Router		/api/account/maps [get]
func (h *MapsHandler) UserMaps(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	page, err := request.IntQuery(r, "page", 1)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	published := r.URL.Query().Get("published") == "true"

	maps, err := h.maps.UserMaps(r.Context(), userID, published, page)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, maps)
}

// PublishedBy список опубликованных карт другого пользователя
//
//	@Summary	List a user's published maps
//	@Tags		Users
//	@Produce	json
//	@Param		userID	path		int	true	"User ID"
//	@Param		page	query		int	false	"Page number"
//	@Success	200		{object}	response.Envelope{data=[]domain.MapSummary}	"Published maps"
//	@Failure	404		{object}	response.Envelope	"User not found"
//	@Router		/api/users/{userID}/maps [get]
func (h *MapsHandler) PublishedBy(w http.ResponseWriter, r *http.Request) {
	userID, err := request.IDParam(r, "userID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	page, err := request.IntQuery(r, "page", 1)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	maps, err := h.maps.PublishedBy(r.Context(), userID, page)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, maps)
}

// LikedMaps список понравившихся карт
//
//	@Summary	List liked maps
//	@Tags		Likes
//	@Produce	json
//	@Security	BearerAuth
//	@Param		page	query		int	false	"Page number"
//	@Success	200		{object}	response.Envelope{data=[]domain.MapSummary}	"Liked maps"
//	@Router		/api/account/likes [get]
func (h *MapsHandler) LikedMaps(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	page, err := request.IntQuery(r, "page", 1)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	maps, err := h.maps.LikedMaps(r.Context(), userID, page)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, maps)
}

// PopularTags самые используемые теги
//
//	@Summary	Popular tags
//	@Tags		Maps
//	@Produce	json
//	@Success	200	{object}	response.Envelope{data=[]string}	"Tag names"
//	@Router		/api/tags/popular [get]
func (h *MapsHandler) PopularTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.maps.PopularTags(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, tags)
}

// Countries все известные страны
//
//	@Summary	List countries
//	@Tags		Maps
//	@Produce	json
//	@Success	200	{object}	response.Envelope{data=[]string}	"Country names"
//	@Router		/api/countries [get]
func (h *MapsHandler) Countries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.maps.Countries(r.Context())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, countries)
}

// AddCountry привязывает страну к карте
//
//	@Summary	Attribute a country to a map
//	@Tags		Maps
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		mapID	path		int					true	"Map ID"
//	@Param		request	body		AddCountryRequest	true	"Country"
//	@Success	200		{object}	response.Envelope	"Country attached"
//	@Router		/api/maps/{mapID}/countries [post]
func (h *MapsHandler) AddCountry(w http.ResponseWriter, r *http.Request) {
	mapID, ok := h.ownedMap(w, r)
	if !ok {
		return
	}

	var req AddCountryRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.maps.AddCountry(r.Context(), mapID, req.Name); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, nil)
}

// Like ставит лайк карте
//
//	@Summary	Like a map
//	@Tags		Likes
//	@Produce	json
//	@Security	BearerAuth
//	@Param		mapID	path		int	true	"Map ID"
//	@Success	200		{object}	response.Envelope{data=LikeResponse}	"Map liked"
//	@Failure	409		{object}	response.Envelope	"Already liked"
//	@Router		/api/maps/{mapID}/like [post]
func (h *MapsHandler) Like(w http.ResponseWriter, r *http.Request) {
	mapID, userID, ok := h.likeTarget(w, r)
	if !ok {
		return
	}

	count, err := h.likes.Like(r.Context(), mapID, userID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, LikeResponse{Likes: int(count), Liked: true})
}

// Unlike убирает лайк
//
//	@Summary	Remove a like
//	@Tags		Likes
//	@Produce	json
//	@Security	BearerAuth
//	@Param		mapID	path		int	true	"Map ID"
//	@Success	200		{object}	response.Envelope{data=LikeResponse}	"Like removed"
//	@Failure	404		{object}	response.Envelope	"Not liked"
//	@Router		/api/maps/{mapID}/like [delete]
func (h *MapsHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	mapID, userID, ok := h.likeTarget(w, r)
	if !ok {
		return
	}

	count, err := h.likes.Unlike(r.Context(), mapID, userID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, LikeResponse{Likes: int(count), Liked: false})
}

// HasLiked проверяет лайк текущего пользователя
//
//	@Summary	Check own like
//	@Tags		Likes
//	@Produce	json
//	@Security	BearerAuth
//	@Param		mapID	path		int	true	"Map ID"
//	@Success	200		{object}	response.Envelope{data=bool}	"Whether the map is liked"
//	@Router		/api/maps/{mapID}/like [get]
func (h *MapsHandler) HasLiked(w http.ResponseWriter, r *http.Request) {
	mapID, userID, ok := h.likeTarget(w, r)
	if !ok {
		return
	}

	liked, err := h.likes.HasLiked(r.Context(), mapID, userID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, liked)
}

func (h *MapsHandler) likeTarget(w http.ResponseWriter, r *http.Request) (mapID, userID int64, ok bool) {
	userID, err := currentUser(r)
	if err != nil {
		response.Error(w, h.log, err)
		return 0, 0, false
	}
	mapID, err = request.IDParam(r, "mapID")
	if err != nil {
		response.Error(w, h.log, err)
		return 0, 0, false
	}
	return mapID, userID, true
}

// ownedMap resolves the {mapID} parameter and checks that the caller owns it.
func (h *MapsHandler) ownedMap(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := currentUser(r)
	if err != nil {
		response.Error(w, h.log, err)
		return 0, false
	}
	mapID, err := request.IDParam(r, "mapID")
	if err != nil {
		response.Error(w, h.log, err)
		return 0, false
	}
	if err := h.maps.EnsureOwner(r.Context(), mapID, userID); err != nil {
		response.Error(w, h.log, err)
		return 0, false
	}
	return mapID, true
}

func currentUser(r *http.Request) (int64, error) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		return 0, domain.Unauthorized("authorization required")
	}
	return userID, nil
}

// formList collects a repeated form field whose values may also be comma-separated.
func formList(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.Form[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
