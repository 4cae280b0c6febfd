package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service"
)

type addressReq struct {
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country"`
	IsDefault   bool   `json:"is_default"`
}

// @Summary List own addresses
// @Tags addresses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Address
// @Router /addresses [get]
func (s *Server) listAddresses(c *gin.Context) {
	list, err := s.svc.Addresses.List(c, principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Create address
// @Tags addresses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body addressReq true "Address"
// @Success 201 {object} domain.Address
// @Failure 400 {object} map[string]string
// @Router /addresses [post]
func (s *Server) createAddress(c *gin.Context) {
	var req addressReq
	if !bindJSON(c, &req) {
		return
	}
	a, err := s.svc.Addresses.Create(c, principal(c), domain.Address{
		AddressLine: req.AddressLine,
		City:        req.City,
		State:       req.State,
		PostalCode:  req.PostalCode,
		Country:     req.Country,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

type updateAddressReq struct {
	AddressLine *string `json:"address_line"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	PostalCode  *string `json:"postal_code"`
	Country     *string `json:"country"`
	IsDefault   *bool   `json:"is_default"`
}

// @Summary Update address
// @Tags addresses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Address ID"
// @Param input body updateAddressReq true "Patch"
// @Success 200 {object} domain.Address
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /addresses/{id} [patch]
func (s *Server) updateAddress(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateAddressReq
	if !bindJSON(c, &req) {
		return
	}
	a, err := s.svc.Addresses.Update(c, principal(c), id, service.AddressPatch{
		AddressLine: req.AddressLine,
		City:        req.City,
		State:       req.State,
		PostalCode:  req.PostalCode,
		Country:     req.Country,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// @Summary Delete address
// @Tags addresses
// @Security BearerAuth
// @Param id path string true "Address ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /addresses/{id} [delete]
func (s *Server) deleteAddress(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Addresses.Delete(c, principal(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
