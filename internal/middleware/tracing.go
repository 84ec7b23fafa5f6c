package middleware

import (
	"fmt"
	"strings"

	"photoshare/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// routeParamAttrs maps path parameters to the span attributes they populate.
var routeParamAttrs = map[string]string{
	"photoId": "photo.id",
	"name":    "image.name",
}

// idAttrForRoute resolves the generic :id parameter by the resource its route names.
func idAttrForRoute(route string) string {
	switch {
	case strings.HasPrefix(route, "/photos/"):
		return "photo.id"
	case strings.HasPrefix(route, "/comments/"):
		return "comment.id"
	default:
		return "target_user.id"
	}
}

// TracingMiddleware opens a server span per request. The span is renamed to
// the matched route template once routing has run, and carries the photo,
// comment or user ids found in the path.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.target", c.OriginalURL()),
				attribute.String("http.client_ip", c.IP()),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		if requestID := c.Locals("requestid"); requestID != nil {
			span.SetAttributes(attribute.String("request.id", fmt.Sprintf("%v", requestID)))
		}
		c.Set("X-Trace-ID", traceID)
		c.SetUserContext(ctx)

		err := c.Next()

		route := c.Route().Path
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(attribute.String("http.route", route))
		for param, attr := range routeParamAttrs {
			if v := c.Params(param); v != "" {
				span.SetAttributes(attribute.String(attr, v))
			}
		}
		if id := c.Params("id"); id != "" {
			span.SetAttributes(attribute.String(idAttrForRoute(route), id))
		}
		if userID, ok := c.Locals("userID").(string); ok && userID != "" {
			span.SetAttributes(attribute.String("user.id", userID))
		}

		status := ResponseStatus(c, err)
		span.SetAttributes(attribute.Int("http.status_code", status))
		if err != nil {
			span.RecordError(err)
		}
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, "server error")
		}

		return err
	}
}
