package http

import (
	"MapHub-Backend/internal/handler/request"
	"MapHub-Backend/internal/handler/response"
	"MapHub-Backend/internal/service"
	"net/http"

	"go.uber.org/zap"
)

// PlacesHandler обработчик мест на карте
type PlacesHandler struct {
	places         *service.PlaceService
	maps           *service.MapService
	maxUploadBytes int64
	log            *zap.Logger
}

// NewPlacesHandler создает новый обработчик мест
func NewPlacesHandler(places *service.PlaceService, maps *service.MapService, maxUploadBytes int64, log *zap.Logger) *PlacesHandler {
	return &PlacesHandler{
		places:         places,
		maps:           maps,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

// AddPlaceRequest структура запроса добавления места
type AddPlaceRequest struct {
	Type        string  `json:"type" validate:"required,oneof=marker circle"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Radius      float64 `json:"radius" validate:"gte=0"`
	Name        string  `json:"name" validate:"max=100"`
	Description string  `json:"description" validate:"max=1000"`
	Color       string  `json:"color" validate:"max=16"`
	Country     string  `json:"country" validate:"max=100"`
}

// AddPlaceResponse структура ответа добавления места
type AddPlaceResponse struct {
	ID int64 `json:"id"`
}

// Add добавляет маркер или круг
//
//	@Summary	Add a place
//	@Tags		Places
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		mapID	path		int				true	"Map ID"
//	@Param		request	body		AddPlaceRequest	true	"Place"
//	@Success	201		{object}	response.Envelope{data=AddPlaceResponse}	"Place added"
//	@Failure	400		{object}	response.Envelope	"Invalid request data"
//	@Failure	422		{object}	response.Envelope	"Content rejected by moderation"
//	@Router		/api/maps/{mapID}/places [post]
func (h *PlacesHandler) Add(w http.ResponseWriter, r *http.Request) {
	mapID, ok := h.owned(w, r, func() (int64, error) { return request.IDParam(r, "mapID") })
	if !ok {
		return
	}

	var req AddPlaceRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}

	id, err := h.places.AddPlace(r.Context(), service.AddPlaceInput{
		MapID:       mapID,
		Type:        req.Type,
		X:           req.X,
		Y:           req.Y,
		Radius:      req.Radius,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Country:     req.Country,
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusCreated, AddPlaceResponse{ID: id})
}

// Update меняет название, описание и фото места
//
//	@Summary	Update place info
//	@Tags		Places
//	@Accept		multipart/form-data
//	@Produce	json
//	@Security	BearerAuth
//	@Param		placeID			path		int		true	"Place ID"
//	@Param		name			formData	string	true	"Place name"
//	@Param		description		formData	string	true	"Place description"
//	@Param		photo			formData	file	false	"New photo"
//	@Param		remove_photo	formData	bool	false	"Drop the current photo"
//	@Success	200				{object}	response.Envelope	"Place updated"
//	@Router		/api/places/{placeID} [put]
func (h *PlacesHandler) Update(w http.ResponseWriter, r *http.Request) {
	placeID, err := request.IDParam(r, "placeID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if _, ok := h.owned(w, r, func() (int64, error) { return h.places.MapIDOf(r.Context(), placeID) }); !ok {
		return
	}

	photo, err := request.FormFile(r, "photo", h.maxUploadBytes)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	err = h.places.UpdateInfo(r.Context(), service.UpdatePlaceInput{
		PlaceID:     placeID,
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Photo:       photo,
		RemovePhoto: r.FormValue("remove_photo") == "true",
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, nil)
}

// Remove удаляет место
//
//	@Summary	Remove a place
//	@Tags		Places
//	@Produce	json
//	@Security	BearerAuth
//	@Param		placeID	path		int	true	"Place ID"
//	@Success	200		{object}	response.Envelope{data=domain.CleanupReport}	"Place removed"
//	@Router		/api/places/{placeID} [delete]
func (h *PlacesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	placeID, err := request.IDParam(r, "placeID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	if _, ok := h.owned(w, r, func() (int64, error) { return h.places.MapIDOf(r.Context(), placeID) }); !ok {
		return
	}

	report, err := h.places.Remove(r.Context(), placeID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, report)
}

// Markers маркеры карты
//
//	@Summary	List map markers
//	@Tags		Places
//	@Produce	json
//	@Param		mapID	path		int	true	"Map ID"
//	@Success	200		{object}	response.Envelope{data=[]domain.Marker}	"Markers"
//	@Router		/api/maps/{mapID}/markers [get]
func (h *PlacesHandler) Markers(w http.ResponseWriter, r *http.Request) {
	mapID, err := request.IDParam(r, "mapID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	markers, err := h.places.Markers(r.Context(), mapID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, markers)
}

// Circles круги карты
//
//	@Summary	List map circles
//	@Tags		Places
//	@Produce	json
//	@Param		mapID	path		int	true	"Map ID"
//	@Success	200		{object}	response.Envelope{data=[]domain.Circle}	"Circles"
//	@Router		/api/maps/{mapID}/circles [get]
func (h *PlacesHandler) Circles(w http.ResponseWriter, r *http.Request) {
	mapID, err := request.IDParam(r, "mapID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	circles, err := h.places.Circles(r.Context(), mapID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, circles)
}

// owned resolves the target map and checks the caller owns it.
func (h *PlacesHandler) owned(w http.ResponseWriter, r *http.Request, mapOf func() (int64, error)) (int64, bool) {
	userID, err := currentUser(r)
	if err != nil {
		response.Error(w, h.log, err)
		return 0, false
	}
	mapID, err := mapOf()
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
