package browser

import (
	"context"
	"fmt"

	"coursexport/internal/extract"
	"coursexport/internal/logger"
	"coursexport/internal/protocol"
)

// Listener receives a raw JSON request and answers with a raw JSON response.
type Listener func(ctx context.Context, raw []byte) ([]byte, error)

// ContentScript returns the listener that extracts course data from page.
// Extraction failures are answered as {ok:false,error}; only a malformed request
// is returned as an error.
func ContentScript(page *extract.Page, log *logger.Logger) Listener {
	log = logger.OrDiscard(log)

	return func(_ context.Context, raw []byte) ([]byte, error) {
		req, err := protocol.DecodeRequest(raw)
		if err != nil {
			return nil, err
		}

		var resp protocol.Response

		switch req.Type {
		case protocol.TypeExtractCourseData:
			result, err := extract.Assemble(page)
			if err != nil {
				log.Debug("extraction refused", "url", page.URL.String(), "error", err)
				resp = protocol.Failure(err)

				break
			}

			log.Debug("course extracted", "slug", result.Slug, "lessons", len(result.Payload.Lessons))
			resp = protocol.Success(result)
		default:
			resp = protocol.Failure(fmt.Errorf("%w: %q", protocol.ErrUnknownType, req.Type))
		}

		return protocol.EncodeResponse(resp)
	}
}
