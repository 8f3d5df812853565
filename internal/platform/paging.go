package platform

import "context"

const pageSize = 100

type connection[T any] struct {
	PageInfo struct {
		HasNextPage bool   `json:"hasNextPage"`
		EndCursor   string `json:"endCursor"`
	} `json:"pageInfo"`
	Edges []struct {
		Node T `json:"node"`
	} `json:"edges"`
}

// listAll follows the connection cursor until the list is exhausted or limit
// nodes were collected. A limit <= 0 means no limit.
func listAll[T any](ctx context.Context, c *Client, op, document, field string, filters map[string]any, limit int) ([]T, error) {
	var (
		out   []T
		after string
	)
	for {
		size := pageSize
		if limit > 0 && limit-len(out) < size {
			size = limit - len(out)
		}
		page := make(map[string]any, len(filters)+2)
		for k, v := range filters {
			page[k] = v
		}
		page["first"] = size
		if after != "" {
			page["after"] = after
		}

		var conn connection[T]
		if err := c.query(ctx, op, document, field, page, &conn); err != nil {
			return nil, err
		}
		for _, e := range conn.Edges {
			out = append(out, e.Node)
		}

		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
		if !conn.PageInfo.HasNextPage || conn.PageInfo.EndCursor == "" || len(conn.Edges) == 0 {
			return out, nil
		}
		after = conn.PageInfo.EndCursor
	}
}

// vars drops zero-valued filters so the server treats them as absent.
type vars map[string]any

func (v vars) str(key, val string) vars {
	if val != "" {
		v[key] = val
	}
	return v
}

func (v vars) boolean(key string, val *bool) vars {
	if val != nil {
		v[key] = *val
	}
	return v
}
