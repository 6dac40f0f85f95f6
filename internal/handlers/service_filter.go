package handlers

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

const earthRadiusMiles = 3963.2

// reservedQueryParams never become field filters.
var reservedQueryParams = map[string]struct{}{
	"select":   {},
	"sort":     {},
	"page":     {},
	"limit":    {},
	"lat":      {},
	"lon":      {},
	"distance": {},
	"location": {},
}

var filterOperators = map[string]string{
	"gt":  "$gt",
	"gte": "$gte",
	"lt":  "$lt",
	"lte": "$lte",
	"in":  "$in",
}

// buildServiceFilter translates listing query parameters into a mongo
// filter. `field[op]=value` pairs become comparison operators, plain
// `field=value` pairs become equality matches.
func buildServiceFilter(values url.Values) bson.M {
	filter := bson.M{}

	for key, list := range values {
		if len(list) == 0 {
			continue
		}
		value := list[len(list)-1]

		field, op, hasOp := splitFilterKey(key)
		if _, reserved := reservedQueryParams[field]; reserved {
			continue
		}

		if !hasOp {
			filter[field] = coerceFilterValue(value)
			continue
		}

		mongoOp, known := filterOperators[op]
		if !known {
			continue
		}

		condition, ok := filter[field].(bson.M)
		if !ok {
			condition = bson.M{}
			filter[field] = condition
		}

		if mongoOp == "$in" {
			parts := strings.Split(value, ",")
			coerced := make([]interface{}, 0, len(parts))
			for _, p := range parts {
				coerced = append(coerced, coerceFilterValue(strings.TrimSpace(p)))
			}
			condition[mongoOp] = coerced
			continue
		}

		condition[mongoOp] = coerceFilterValue(value)
	}

	return filter
}

// splitFilterKey breaks "price[lte]" into ("price", "lte", true).
func splitFilterKey(key string) (field, op string, hasOp bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, "", false
	}
	return key[:open], key[open+1 : len(key)-1], true
}

func coerceFilterValue(value string) interface{} {
	if number, err := strconv.ParseFloat(value, 64); err == nil {
		return number
	}
	if boolean, err := strconv.ParseBool(value); err == nil {
		return boolean
	}
	return value
}

// applyLocationFilter adds the geospatial or text location constraint.
// Coordinates take priority; the text fallback is a case-insensitive prefix
// match on the service's own address city.
func applyLocationFilter(filter bson.M, latStr, lonStr, distanceStr, location string) {
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)

	if latErr == nil && lonErr == nil {
		distance := 10.0
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(distanceStr), 64); err == nil && parsed > 0 {
			distance = parsed
		}
		radius := distance / earthRadiusMiles

		filter["location"] = bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{bson.A{lon, lat}, radius},
			},
		}
		return
	}

	if city := strings.TrimSpace(location); city != "" {
		filter["address.city"] = bson.M{
			"$regex":   "^" + regexp.QuoteMeta(city),
			"$options": "i",
		}
	}
}

// parseSortParam turns "-price,createdAt" into a mongo sort document.
// Default order is newest first.
func parseSortParam(sort string) bson.D {
	sort = strings.TrimSpace(sort)
	if sort == "" {
		return bson.D{{Key: "createdAt", Value: -1}}
	}

	result := bson.D{}
	for _, field := range strings.Split(sort, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		direction := 1
		if strings.HasPrefix(field, "-") {
			direction = -1
			field = field[1:]
		}
		if field != "" {
			result = append(result, bson.E{Key: field, Value: direction})
		}
	}

	if len(result) == 0 {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	return result
}

// parseSelectParam turns "title,price" into an inclusion projection.
func parseSelectParam(sel string) bson.D {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return nil
	}

	projection := bson.D{}
	for _, field := range strings.Split(sel, ",") {
		field = strings.TrimSpace(field)
		if field != "" {
			projection = append(projection, bson.E{Key: field, Value: 1})
		}
	}

	if len(projection) == 0 {
		return nil
	}
	return projection
}
