package controllers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/fashioncraft/app/models"
	"github.com/shashiranjanraj/fashioncraft/app/services"
	"github.com/shashiranjanraj/fashioncraft/pkg/apperr"
	"github.com/shashiranjanraj/fashioncraft/pkg/ctx"
)

// PreviewField is the multipart field carrying a preview image.
const PreviewField = "image"

type OrderController struct {
	orders   *services.OrderService
	previews *services.PreviewService
}

func NewOrderController(orders *services.OrderService, previews *services.PreviewService) *OrderController {
	return &OrderController{orders: orders, previews: previews}
}

// Index lists the caller's orders, newest intake first. ?search= filters
// by client name.
func (c *OrderController) Index(x *ctx.Context) {
	orders, err := c.orders.List(x.Context(), x.AccountID(), x.Query("search"))
	if err != nil {
		x.Fail(err, "Error al obtener órdenes")
		return
	}
	x.OK(orders)
}

func (c *OrderController) Store(x *ctx.Context) {
	var body models.OrderInput
	if !x.BindJSON(&body) {
		return
	}

	order, err := c.orders.Create(x.Context(), x.AccountID(), body)
	if err != nil {
		x.Fail(err, "Error al guardar")
		return
	}
	x.OK(order)
}

func (c *OrderController) Show(x *ctx.Context) {
	order, err := c.orders.Get(x.Context(), x.AccountID(), x.Param("id"))
	if err != nil {
		x.Fail(err, "Error al obtener órdenes")
		return
	}
	x.OK(order)
}

// Update merges the body into the order. An order that does not exist or
// belongs to another account yields a null body with status 200.
func (c *OrderController) Update(x *ctx.Context) {
	var patch models.OrderPatch
	if !x.BindJSON(&patch) {
		return
	}

	order, err := c.orders.Update(x.Context(), x.AccountID(), x.Param("id"), patch)
	if err != nil {
		x.Fail(err, "Error al actualizar")
		return
	}
	x.OK(order)
}

// Destroy answers 200 whether or not anything was removed.
func (c *OrderController) Destroy(x *ctx.Context) {
	if _, err := c.orders.Delete(x.Context(), x.AccountID(), x.Param("id")); err != nil {
		x.Fail(err, "Error al eliminar")
		return
	}
	x.Msg(http.StatusOK, "Orden eliminada correctamente")
}

func (c *OrderController) Invoice(x *ctx.Context) {
	invoice, err := c.orders.BuildInvoice(x.Context(), x.AccountID(), x.Param("id"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			x.Error(apperr.ErrNotFound)
			return
		}
		x.Fail(err, "Error al procesar factura")
		return
	}
	x.OK(invoice)
}

// Preview accepts an image either as the "image" field of a multipart form
// or as the raw request body.
func (c *OrderController) Preview(x *ctx.Context) {
	data, err := c.readImage(x.R)
	if err != nil {
		x.Error(err)
		return
	}

	order, err := c.previews.Upload(x.Context(), x.AccountID(), x.Param("id"), data)
	if err != nil {
		x.Fail(err, "Error al guardar")
		return
	}
	x.OK(order)
}

func (c *OrderController) readImage(r *http.Request) ([]byte, error) {
	limit := c.previews.MaxBytes()

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		mr, err := r.MultipartReader()
		if err != nil {
			return nil, apperr.Validation("%v", err)
		}
		part, err := findPart(mr, PreviewField)
		if err != nil {
			return nil, err
		}
		defer part.Close()
		src = part
	}

	// One byte over the limit lets the service report the size error.
	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperr.Validation("image too large (max %d bytes)", limit)
		}
		return nil, apperr.Validation("%v", err)
	}
	return data, nil
}

func findPart(mr *multipart.Reader, field string) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, apperr.Validation("missing %q file field", field)
		}
		if err != nil {
			return nil, apperr.Validation("%v", err)
		}
		if part.FormName() == field {
			return part, nil
		}
		part.Close()
	}
}
