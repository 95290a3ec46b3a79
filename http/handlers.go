package http

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/checkin"
	"github.com/sellout-xyz/sellout/go/contracts/boxoffice"
	"github.com/sellout-xyz/sellout/go/contracts/show"
	"github.com/sellout-xyz/sellout/go/evm"
	"github.com/sellout-xyz/sellout/go/types"
	"github.com/sellout-xyz/sellout/go/validation"
)

// errorStatus maps the SDK error taxonomy onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, sellout.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, sellout.ErrUnsupportedNetwork):
		return http.StatusNotFound
	case errors.Is(err, sellout.ErrExecution):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sellout.ErrRead):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(errorStatus(err), types.NewErrorResponse(err))
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, types.BadRequest(msg))
}

// bindJSON checks the raw body against the schema of operation and decodes
// it into v. It writes the error response and returns false on failure.
func bindJSON(c *gin.Context, operation string, v interface{}) bool {
	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, "failed to read request body")
		return false
	}
	if err := validation.ValidateJSON(operation, raw); err != nil {
		writeError(c, err)
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		badRequest(c, "invalid request body")
		return false
	}
	return true
}

// requireChain rejects requests whose chainId query parameter names another
// network than the one the gateway is bound to
func (s *Server) requireChain() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("chainId")
		if raw == "" {
			c.Next()
			return
		}
		id, err := evm.ParseChainID(raw)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		if id != s.sdk.Chain().ChainID() {
			writeError(c, sellout.NewUnsupportedNetworkError(id))
			return
		}
		c.Next()
	}
}

func (s *Server) listNetworks(c *gin.Context) {
	networks, err := types.Networks(s.resolver)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, networks)
}

func (s *Server) listContracts(c *gin.Context) {
	id, err := evm.ParseChainID(c.Param("chainId"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	chain, err := s.resolver.Resolve(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.NewNetwork(chain).Contracts)
}

func (s *Server) getShow(c *gin.Context) {
	sh, err := s.sdk.Show()
	if err != nil {
		writeError(c, err)
		return
	}

	var (
		showID    = c.Param("showId")
		status    show.Status
		organizer common.Address
		sold      *big.Int
		capacity  *big.Int
		threshold *big.Int
		price     *show.PriceRange
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		status, err = sh.GetShowStatus(ctx, showID)
		return err
	})
	g.Go(func() (err error) {
		organizer, err = sh.GetOrganizer(ctx, showID)
		return err
	})
	g.Go(func() (err error) {
		sold, err = sh.GetTotalTicketsSold(ctx, showID)
		return err
	})
	g.Go(func() (err error) {
		capacity, err = sh.GetTotalCapacity(ctx, showID)
		return err
	})
	g.Go(func() (err error) {
		threshold, err = sh.GetSellOutThreshold(ctx, showID)
		return err
	})
	g.Go(func() (err error) {
		price, err = sh.GetTicketPrice(ctx, showID)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.ShowSummary{
		ShowID:           showID,
		Status:           status.String(),
		Organizer:        organizer.Hex(),
		TicketsSold:      types.Decimal(sold),
		TotalCapacity:    types.Decimal(capacity),
		SellOutThreshold: types.Decimal(threshold),
		MinPrice:         types.Decimal(price.MinPrice),
		MaxPrice:         types.Decimal(price.MaxPrice),
	})
}

func (s *Server) isOrganizer(c *gin.Context) {
	sh, err := s.sdk.Show()
	if err != nil {
		writeError(c, err)
		return
	}
	ok, err := sh.IsOrganizer(c.Request.Context(), c.Param("showId"), c.Param("address"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.Check{Result: ok})
}

func (s *Server) proposeShow(c *gin.Context) {
	var in show.ProposeShowInput
	if !bindJSON(c, "show.proposeShow", &in) {
		return
	}
	sh, err := s.sdk.Show()
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := sh.ProposeShow(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) cancelShow(c *gin.Context) {
	sh, err := s.sdk.Show()
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := sh.CancelShow(c.Request.Context(), c.Param("showId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) purchaseTickets(c *gin.Context) {
	var in boxoffice.PurchaseInput
	if !bindJSON(c, "boxoffice.purchaseTickets", &in) {
		return
	}
	bo, err := s.sdk.BoxOffice()
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := bo.PurchaseTickets(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// verifyCheckIn looks up the ticket proxy of the show and verifies the pass
// against it
func (s *Server) verifyCheckIn(c *gin.Context) {
	var in checkin.Input
	if !bindJSON(c, "checkin.verify", &in) {
		return
	}
	sh, err := s.sdk.Show()
	if err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	proxy, err := sh.GetTicketProxy(ctx, in.ShowID)
	if err != nil {
		writeError(c, err)
		return
	}
	if proxy == (common.Address{}) {
		writeError(c, sellout.NewValidationError("checkin.verify", "showId", "show has no ticket contract"))
		return
	}

	v, err := s.verifier(proxy)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := v.Verify(ctx, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
