package graphdb

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/Gengyveusa/aether/helper"
	"github.com/Gengyveusa/aether/model"
	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// propertyTimeLayout is fixed width so that ORDER BY on the string sorts by instant.
const propertyTimeLayout = "2006-01-02T15:04:05.000000Z"

// jsonKeysProperty lists the extra data keys whose values are stored as JSON text.
const jsonKeysProperty = "extraDataJsonKeys"

func formatProperty(t time.Time) string {
	return model.NormalizeTime(t).Format(propertyTimeLayout)
}

func parseProperty(v interface{}) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp property has type %T", v)
	}
	t, err := time.Parse(propertyTimeLayout, s)
	if err != nil {
		return model.ParseTime(s)
	}
	return model.NormalizeTime(t), nil
}

// entityProperties flattens e onto node properties.
// Values Neo4j cannot hold natively are JSON-encoded and listed under jsonKeysProperty.
func entityProperties(e *model.Entity) (map[string]interface{}, error) {
	props := make(map[string]interface{}, len(e.ExtraData)+8)
	jsonKeys := []string{}

	for k, v := range e.ExtraData {
		if k == jsonKeysProperty {
			return nil, helper.NewValidationError("map entity", "extraData may not contain reserved key "+k)
		}
		native, ok := nativeValue(v)
		if ok {
			props[k] = native
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, helper.NewValidationError("map entity", fmt.Sprintf("extraData key %s is not serializable: %v", k, err))
		}
		props[k] = string(b)
		jsonKeys = append(jsonKeys, k)
	}
	sort.Strings(jsonKeys)

	props["id"] = e.ID.String()
	props["type"] = e.Type
	props["slug"] = e.Slug
	props["displayName"] = e.DisplayName
	props["description"] = e.Description
	props["createdAt"] = formatProperty(e.CreatedAt)
	props["updatedAt"] = formatProperty(e.UpdatedAt)
	props[jsonKeysProperty] = jsonKeys

	return props, nil
}

// nativeValue reports whether v can be stored as a property as is.
// Integers are widened to float64 so every backend returns JSON-shaped numbers.
func nativeValue(v interface{}) (interface{}, bool) {
	switch x := v.(type) {
	case string, bool, float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case []string:
		return x, true
	case []interface{}:
		return homogeneousList(x)
	}
	return nil, false
}

// homogeneousList accepts non-empty lists whose elements share one scalar kind.
func homogeneousList(list []interface{}) (interface{}, bool) {
	if len(list) == 0 {
		return nil, false
	}

	kind := ""
	out := make([]interface{}, 0, len(list))
	for _, item := range list {
		native, ok := nativeValue(item)
		if !ok {
			return nil, false
		}
		k := fmt.Sprintf("%T", native)
		if k != "string" && k != "bool" && k != "float64" {
			return nil, false
		}
		if kind != "" && k != kind {
			return nil, false
		}
		kind = k
		out = append(out, native)
	}
	return out, true
}

func entityFromNode(node neo4j.Node) (*model.Entity, error) {
	return entityFromProperties(node.Props)
}

func entityFromProperties(props map[string]interface{}) (*model.Entity, error) {
	e := &model.Entity{ExtraData: model.Metadata{}}

	idText, _ := props["id"].(string)
	id, err := uuid.Parse(idText)
	if err != nil {
		return nil, helper.NewError("map entity id", err)
	}
	e.ID = id
	e.Type, _ = props["type"].(string)
	e.Slug, _ = props["slug"].(string)
	e.DisplayName, _ = props["displayName"].(string)
	e.Description, _ = props["description"].(string)

	if e.CreatedAt, err = parseProperty(props["createdAt"]); err != nil {
		return nil, helper.NewError("map entity createdAt", err)
	}
	if e.UpdatedAt, err = parseProperty(props["updatedAt"]); err != nil {
		return nil, helper.NewError("map entity updatedAt", err)
	}

	jsonKeys := map[string]struct{}{}
	if list, ok := props[jsonKeysProperty].([]interface{}); ok {
		for _, k := range list {
			if s, ok := k.(string); ok {
				jsonKeys[s] = struct{}{}
			}
		}
	}

	for k, v := range props {
		if k == jsonKeysProperty || model.IsReservedEntityKey(k) {
			continue
		}
		if _, ok := jsonKeys[k]; ok {
			var decoded interface{}
			s, _ := v.(string)
			if err := json.Unmarshal([]byte(s), &decoded); err != nil {
				return nil, helper.NewError("map entity extra data "+k, err)
			}
			e.ExtraData[k] = decoded
			continue
		}
		e.ExtraData[k] = v
	}

	return e, nil
}

func relationshipProperties(r *model.Relationship) map[string]interface{} {
	proofIDs := r.ProofIDs
	if proofIDs == nil {
		proofIDs = []string{}
	}
	return map[string]interface{}{
		"id":        r.ID.String(),
		"type":      r.Type,
		"proofIds":  proofIDs,
		"createdAt": formatProperty(r.CreatedAt),
		"updatedAt": formatProperty(r.UpdatedAt),
	}
}

// relationshipFromRecord reads the edge under "r" and the endpoint ids under "fromId" and "toId".
func relationshipFromRecord(record *neo4j.Record) (*model.Relationship, error) {
	rel, err := recordValue[neo4j.Relationship](record, "r")
	if err != nil {
		return nil, err
	}
	fromID, err := recordValue[string](record, "fromId")
	if err != nil {
		return nil, err
	}
	toID, err := recordValue[string](record, "toId")
	if err != nil {
		return nil, err
	}
	return relationshipFromProperties(rel.Props, fromID, toID)
}

func relationshipFromProperties(props map[string]interface{}, fromID, toID string) (*model.Relationship, error) {
	r := &model.Relationship{ProofIDs: []string{}}

	var err error
	idText, _ := props["id"].(string)
	if r.ID, err = uuid.Parse(idText); err != nil {
		return nil, helper.NewError("map relationship id", err)
	}
	if r.FromEntityID, err = uuid.Parse(fromID); err != nil {
		return nil, helper.NewError("map relationship from", err)
	}
	if r.ToEntityID, err = uuid.Parse(toID); err != nil {
		return nil, helper.NewError("map relationship to", err)
	}
	r.Type, _ = props["type"].(string)

	if list, ok := props["proofIds"].([]interface{}); ok {
		for _, p := range list {
			if s, ok := p.(string); ok {
				r.ProofIDs = append(r.ProofIDs, s)
			}
		}
	}

	if r.CreatedAt, err = parseProperty(props["createdAt"]); err != nil {
		return nil, helper.NewError("map relationship createdAt", err)
	}
	if r.UpdatedAt, err = parseProperty(props["updatedAt"]); err != nil {
		return nil, helper.NewError("map relationship updatedAt", err)
	}

	return r, nil
}

// neighborFromRecord reads the edge under "r" and its endpoints under "a" and "b".
func neighborFromRecord(record *neo4j.Record) (*model.Neighbor, error) {
	rel, err := recordValue[neo4j.Relationship](record, "r")
	if err != nil {
		return nil, err
	}
	start, err := recordValue[neo4j.Node](record, "a")
	if err != nil {
		return nil, err
	}
	end, err := recordValue[neo4j.Node](record, "b")
	if err != nil {
		return nil, err
	}

	from, err := entityFromNode(start)
	if err != nil {
		return nil, err
	}
	to, err := entityFromNode(end)
	if err != nil {
		return nil, err
	}
	r, err := relationshipFromProperties(rel.Props, from.ID.String(), to.ID.String())
	if err != nil {
		return nil, err
	}

	return &model.Neighbor{Relationship: r, FromEntity: from, ToEntity: to}, nil
}

func recordValue[T any](record *neo4j.Record, key string) (T, error) {
	var zero T
	raw, ok := record.Get(key)
	if !ok {
		return zero, helper.NewError("read record", fmt.Errorf("missing key %s", key))
	}
	v, ok := raw.(T)
	if !ok {
		return zero, helper.NewError("read record", fmt.Errorf("key %s has type %T", key, raw))
	}
	return v, nil
}
