package handlers

import (
	"net/url"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildServiceFilterEqualityAndOperators(t *testing.T) {
	values := url.Values{}
	values.Set("category", "plumbing")
	values.Set("price[lte]", "100")
	values.Set("price[gte]", "20")

	filter := buildServiceFilter(values)

	if filter["category"] != "plumbing" {
		t.Fatalf("expected category equality match, got %v", filter["category"])
	}

	price, ok := filter["price"].(bson.M)
	if !ok {
		t.Fatalf("expected price condition document, got %T", filter["price"])
	}
	if price["$lte"] != 100.0 || price["$gte"] != 20.0 {
		t.Fatalf("expected numeric $lte/$gte bounds, got %v", price)
	}
}

func TestBuildServiceFilterInOperatorSplitsValues(t *testing.T) {
	values := url.Values{}
	values.Set("title[in]", "cleaning, plumbing")

	filter := buildServiceFilter(values)

	title, ok := filter["title"].(bson.M)
	if !ok {
		t.Fatalf("expected title condition document, got %T", filter["title"])
	}
	list, ok := title["$in"].([]interface{})
	if !ok || len(list) != 2 {
		t.Fatalf("expected two $in values, got %v", title["$in"])
	}
	if list[0] != "cleaning" || list[1] != "plumbing" {
		t.Fatalf("expected trimmed values, got %v", list)
	}
}

func TestBuildServiceFilterSkipsReservedAndUnknownOps(t *testing.T) {
	values := url.Values{}
	values.Set("page", "3")
	values.Set("sort", "-price")
	values.Set("select", "title")
	values.Set("lat", "12")
	values.Set("price[unknown]", "5")

	filter := buildServiceFilter(values)
	if len(filter) != 0 {
		t.Fatalf("expected empty filter, got %v", filter)
	}
}

func TestCoerceFilterValueTypes(t *testing.T) {
	if v := coerceFilterValue("42.5"); v != 42.5 {
		t.Fatalf("expected float, got %v (%T)", v, v)
	}
	if v := coerceFilterValue("true"); v != true {
		t.Fatalf("expected bool, got %v (%T)", v, v)
	}
	if v := coerceFilterValue("plumbing"); v != "plumbing" {
		t.Fatalf("expected string, got %v (%T)", v, v)
	}
}

func TestApplyLocationFilterGeoTakesPriority(t *testing.T) {
	filter := bson.M{}
	applyLocationFilter(filter, "40.7", "-74.0", "20", "New York")

	if _, ok := filter["address.city"]; ok {
		t.Fatal("city filter must be skipped when coordinates are present")
	}

	location, ok := filter["location"].(bson.M)
	if !ok {
		t.Fatalf("expected geo filter, got %v", filter)
	}
	within, ok := location["$geoWithin"].(bson.M)
	if !ok {
		t.Fatalf("expected $geoWithin, got %v", location)
	}
	sphere, ok := within["$centerSphere"].(bson.A)
	if !ok || len(sphere) != 2 {
		t.Fatalf("expected $centerSphere pair, got %v", within)
	}
	if sphere[1] != 20/earthRadiusMiles {
		t.Fatalf("expected radius in earth radians, got %v", sphere[1])
	}
	center, ok := sphere[0].(bson.A)
	if !ok || center[0] != -74.0 || center[1] != 40.7 {
		t.Fatalf("expected [lon, lat] center, got %v", sphere[0])
	}
}

func TestApplyLocationFilterTextFallback(t *testing.T) {
	filter := bson.M{}
	applyLocationFilter(filter, "", "", "", "Aus")

	city, ok := filter["address.city"].(bson.M)
	if !ok {
		t.Fatalf("expected city regex filter, got %v", filter)
	}
	if city["$regex"] != "^Aus" || city["$options"] != "i" {
		t.Fatalf("expected case-insensitive prefix match, got %v", city)
	}
}

func TestApplyLocationFilterDefaultsDistance(t *testing.T) {
	filter := bson.M{}
	applyLocationFilter(filter, "10", "20", "", "")

	sphere := filter["location"].(bson.M)["$geoWithin"].(bson.M)["$centerSphere"].(bson.A)
	if sphere[1] != 10/earthRadiusMiles {
		t.Fatalf("expected default 10 mile radius, got %v", sphere[1])
	}
}

func TestParseSortParam(t *testing.T) {
	sort := parseSortParam("-price,createdAt")
	if len(sort) != 2 {
		t.Fatalf("expected two sort keys, got %v", sort)
	}
	if sort[0].Key != "price" || sort[0].Value != -1 {
		t.Fatalf("expected price desc first, got %v", sort[0])
	}
	if sort[1].Key != "createdAt" || sort[1].Value != 1 {
		t.Fatalf("expected createdAt asc second, got %v", sort[1])
	}

	fallback := parseSortParam("")
	if len(fallback) != 1 || fallback[0].Key != "createdAt" || fallback[0].Value != -1 {
		t.Fatalf("expected newest-first default, got %v", fallback)
	}
}

func TestParseSelectParam(t *testing.T) {
	projection := parseSelectParam("title, price")
	if len(projection) != 2 {
		t.Fatalf("expected two projected fields, got %v", projection)
	}
	for _, field := range projection {
		if field.Value != 1 {
			t.Fatalf("expected inclusion projection, got %v", field)
		}
	}

	if parseSelectParam("") != nil {
		t.Fatal("expected nil projection for empty select")
	}
}
