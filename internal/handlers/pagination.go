package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

func parsePaginationParams(pageStr, limitStr string, defaultLimit int64) (int64, int64, error) {
	page := int64(1)
	limit := defaultLimit

	if pageStr != "" {
		p, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || p < 1 {
			return 0, 0, fmt.Errorf("invalid page: %s", pageStr)
		}
		page = p
	}

	if limitStr != "" {
		l, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || l < 1 {
			return 0, 0, fmt.Errorf("invalid limit: %s", limitStr)
		}
		limit = l
	}

	return page, limit, nil
}

// buildPagination computes the next/prev descriptors for offset pagination.
// total is counted independently of page/limit.
func buildPagination(page, limit, total int64) gin.H {
	pagination := gin.H{
		"page":  page,
		"limit": limit,
		"total": total,
	}

	if page*limit < total {
		pagination["next"] = gin.H{"page": page + 1, "limit": limit}
	}
	if page > 1 {
		pagination["prev"] = gin.H{"page": page - 1, "limit": limit}
	}

	return pagination
}
