package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skybazaar/skybazaar-backend/api/responses"
	"github.com/skybazaar/skybazaar-backend/api/validators"
	"github.com/skybazaar/skybazaar-backend/internal/catalog"
	pkgerrors "github.com/skybazaar/skybazaar-backend/pkg/errors"
	"github.com/skybazaar/skybazaar-backend/pkg/logger"
)

// ProductsList returns the public catalog with optional filters.
func ProductsList(repo catalog.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dutyFree, err := validators.ParseQueryBoolPtr(r, "duty_free")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inStock, err := validators.ParseQueryBoolPtr(r, "in_stock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := catalog.Filters{
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
			Query:    strings.TrimSpace(r.URL.Query().Get("q")),
			DutyFree: dutyFree,
			Limit:    limit,
			Offset:   offset,
		}
		if inStock != nil && *inStock {
			filters.InStock = true
		}

		products, err := repo.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products"))
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// ProductsDetail returns a single product by id.
func ProductsDetail(repo catalog.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		product, err := repo.FindByID(r.Context(), productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product"))
			return
		}
		responses.WriteSuccess(w, product)
	}
}
