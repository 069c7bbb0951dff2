package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/piwi3910/BoxFit/internal/engine"
	"github.com/piwi3910/BoxFit/internal/export"
	"github.com/piwi3910/BoxFit/internal/model"
	"github.com/piwi3910/BoxFit/internal/project"
	"github.com/piwi3910/BoxFit/internal/session"
	"github.com/piwi3910/BoxFit/internal/store"
)

const maxRandomProducts = 200

type boxRequest struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Width  float64 `json:"width" binding:"gt=0"`
	Depth  float64 `json:"depth" binding:"gt=0"`
	Height float64 `json:"height" binding:"gt=0"`
}

type productRequest struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	SKU     string  `json:"sku"`
	Barcode string  `json:"barcode"`
	Width   float64 `json:"width"`
	Depth   float64 `json:"depth"`
	Height  float64 `json:"height"`
}

type selectionRequest struct {
	ProductIDs []string `json:"product_ids"`
}

type packResponse struct {
	session.Snapshot
	RunID string `json:"run_id,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "state": s.session.State()})
}

func (s *Server) handleListBoxes(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Boxes())
}

func (s *Server) handleAddBox(c *gin.Context) {
	var req boxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	label := req.Label
	if label == "" {
		label = fmt.Sprintf("%gx%gx%g", req.Width, req.Depth, req.Height)
	}
	box := model.NewBox(label, req.Width, req.Depth, req.Height)
	if req.ID != "" {
		box.ID = req.ID
	}

	if s.store != nil {
		if err := s.store.SaveBox(c.Request.Context(), box); err != nil {
			s.logger.Error("save box", "id", box.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save box"})
			return
		}
	}
	s.session.AddBox(box)
	c.JSON(http.StatusCreated, box)
}

func (s *Server) handleDeleteBox(c *gin.Context) {
	id := c.Param("id")
	if err := s.session.RemoveBox(id); err != nil {
		if errors.Is(err, session.ErrUnknownBox) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if s.store != nil {
		if err := s.store.DeleteBox(c.Request.Context(), id); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("delete box", "id", id, "error", err)
		}
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListProducts(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Products())
}

func (s *Server) handleAddProducts(c *gin.Context) {
	var reqs []productRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	products := make([]model.Product, 0, len(reqs))
	for i, req := range reqs {
		if req.Width <= 0 || req.Depth <= 0 || req.Height <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("product %d: dimensions must be positive", i+1)})
			return
		}
		name := req.Name
		if name == "" {
			name = fmt.Sprintf("Product %d", i+1)
		}
		p := model.NewProduct(name, req.Width, req.Depth, req.Height)
		if req.ID != "" {
			p.ID = req.ID
		}
		p.SKU = req.SKU
		p.Barcode = req.Barcode
		products = append(products, p)
	}
	s.addProducts(c, products)
}

func (s *Server) handleRandomProducts(c *gin.Context) {
	count := 10
	if v := c.Query("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxRandomProducts {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("count must be between 1 and %d", maxRandomProducts)})
			return
		}
		count = n
	}
	s.addProducts(c, project.RandomProducts(s.newRand(), count))
}

func (s *Server) addProducts(c *gin.Context, products []model.Product) {
	if s.store != nil {
		for _, p := range products {
			if err := s.store.SaveProduct(c.Request.Context(), p); err != nil {
				s.logger.Error("save product", "id", p.ID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save product"})
				return
			}
		}
	}
	s.session.AddProducts(products...)
	c.JSON(http.StatusCreated, products)
}

func (s *Server) handleSetSelection(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.session.SetSelection(req.ProductIDs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.session.Snapshot())
}

func (s *Server) handlePack(c *gin.Context) {
	sel, err := s.session.Pack(c.Request.Context())
	switch {
	case errors.Is(err, session.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, session.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": session.TimeoutMessage})
		return
	case errors.Is(err, engine.ErrNoFit):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": session.NoFitMessage})
		return
	case err != nil:
		s.logger.Error("pack", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := packResponse{}
	if sel != nil && s.store != nil {
		run := store.NewRun(*sel)
		if err := s.store.SaveRun(c.Request.Context(), run); err != nil {
			s.logger.Error("save run", "error", err)
		} else {
			resp.RunID = run.ID
		}
	}
	resp.Snapshot = s.session.Snapshot()
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleNext(c *gin.Context) {
	item, ok := s.session.ConfirmNext()
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "no placement left to confirm"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item, "session": s.session.Snapshot()})
}

func (s *Server) handlePrevious(c *gin.Context) {
	if !s.session.Previous() {
		c.JSON(http.StatusConflict, gin.H{"error": "already at the first placement"})
		return
	}
	c.JSON(http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleReset(c *gin.Context) {
	if err := s.session.Reset(); err != nil {
		if errors.Is(err, session.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if s.store != nil {
		if _, err := s.store.DeleteProducts(c.Request.Context()); err != nil {
			s.logger.Error("clear products", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear stored products"})
			return
		}
	}
	c.JSON(http.StatusOK, s.session.Snapshot())
}

// handleCompare runs every strategy against one box with the current
// selection. ?format=html renders a bar chart instead of JSON.
func (s *Server) handleCompare(c *gin.Context) {
	box, ok := s.session.Box(c.Param("boxId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": session.ErrUnknownBox.Error()})
		return
	}
	products := s.session.Selected()
	if len(products) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": engine.ErrNoProducts.Error()})
		return
	}

	results := engine.CompareStrategies(products, box, s.compareSeed())
	if c.Query("format") == "html" {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Status(http.StatusOK)
		if err := export.RenderComparisonChart(c.Writer, box, results); err != nil {
			s.logger.Error("render comparison chart", "error", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"box": box, "results": results})
}

func (s *Server) handleGetRun(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "runs are not persisted"})
		return
	}
	run, err := s.store.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}
