package codec

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/knakk/rdf"
	"github.com/siherrmann/tripler/core/uri"
	"github.com/siherrmann/tripler/helper"
	"github.com/siherrmann/tripler/model"
)

// Well-known terms used for statement reification and temporal regions.
var (
	rdfType      = mustIRI(uri.RDFNamespace + "type")
	rdfStatement = mustIRI(uri.RDFNamespace + "Statement")
	rdfSubject   = mustIRI(uri.RDFNamespace + "subject")
	rdfPredicate = mustIRI(uri.RDFNamespace + "predicate")
	rdfObject    = mustIRI(uri.RDFNamespace + "object")

	timeHasTime      = mustIRI(uri.TimeNamespace + "hasTime")
	timeInstant      = mustIRI(uri.TimeNamespace + "Instant")
	timeInterval     = mustIRI(uri.TimeNamespace + "Interval")
	timeHasBeginning = mustIRI(uri.TimeNamespace + "hasBeginning")
	timeHasEnd       = mustIRI(uri.TimeNamespace + "hasEnd")
	timeUnitType     = mustIRI(uri.TimeNamespace + "unitType")

	xsdBoolean  = mustIRI(uri.XSDNamespace + "boolean")
	xsdInteger  = mustIRI(uri.XSDNamespace + "integer")
	xsdDouble   = mustIRI(uri.XSDNamespace + "double")
	xsdDateTime = mustIRI(uri.XSDNamespace + "dateTime")
)

func mustIRI(s string) rdf.IRI {
	i, err := rdf.NewIRI(s)
	if err != nil {
		panic(err)
	}
	return i
}

// Export serializes triples to the given RDF format. Every statement is
// written as a plain triple; statements carrying a temporal region are
// additionally reified so the region survives serialization. Literal
// objects get a datatype inferred from their value, with booleans
// restricted to exactly "true" and "false".
func Export(w io.Writer, triples []*model.Triple, format rdf.Format) error {
	enc := rdf.NewTripleEncoder(w, format)

	for i, t := range triples {
		subj, err := rdf.NewIRI(t.Subject)
		if err != nil {
			return helper.NewError("invalid subject", err)
		}
		pred, err := rdf.NewIRI(t.Predicate)
		if err != nil {
			return helper.NewError("invalid predicate", err)
		}

		var obj rdf.Object
		if t.IsLiteral {
			obj = literalTerm(t.Object())
		} else {
			objIRI, err := rdf.NewIRI(t.Object())
			if err != nil {
				return helper.NewError("invalid object uri", err)
			}
			obj = objIRI
		}

		if err := enc.Encode(rdf.Triple{Subj: subj, Pred: pred, Obj: obj}); err != nil {
			return helper.NewError("encode triple", err)
		}

		if t.TemporalRegionType != nil && t.TemporalStart != nil {
			if err := encodeTemporal(enc, i, subj, pred, obj, t); err != nil {
				return err
			}
		}
	}

	if err := enc.Close(); err != nil {
		return helper.NewError("close encoder", err)
	}
	return nil
}

// encodeTemporal reifies a statement into a blank node and attaches a
// temporal region blank node to it.
func encodeTemporal(enc *rdf.TripleEncoder, index int, subj rdf.IRI, pred rdf.IRI, obj rdf.Object, t *model.Triple) error {
	stmt, err := rdf.NewBlank(fmt.Sprintf("stmt%d", index))
	if err != nil {
		return helper.NewError("new statement blank", err)
	}
	region, err := rdf.NewBlank(fmt.Sprintf("region%d", index))
	if err != nil {
		return helper.NewError("new region blank", err)
	}

	regionClass := timeInstant
	if *t.TemporalRegionType == model.TemporalRegionInterval {
		regionClass = timeInterval
	}

	reified := []rdf.Triple{
		{Subj: stmt, Pred: rdfType, Obj: rdfStatement},
		{Subj: stmt, Pred: rdfSubject, Obj: subj},
		{Subj: stmt, Pred: rdfPredicate, Obj: pred},
		{Subj: stmt, Pred: rdfObject, Obj: obj},
		{Subj: stmt, Pred: timeHasTime, Obj: region},
		{Subj: region, Pred: rdfType, Obj: regionClass},
		{Subj: region, Pred: timeHasBeginning, Obj: rdf.NewTypedLiteral(t.TemporalStart.UTC().Format(time.RFC3339), xsdDateTime)},
	}
	if *t.TemporalRegionType == model.TemporalRegionInterval && t.TemporalEnd != nil {
		reified = append(reified, rdf.Triple{Subj: region, Pred: timeHasEnd, Obj: rdf.NewTypedLiteral(t.TemporalEnd.UTC().Format(time.RFC3339), xsdDateTime)})
	}
	if t.TemporalGranularity != nil {
		reified = append(reified, rdf.Triple{Subj: region, Pred: timeUnitType, Obj: rdf.NewTypedLiteral(*t.TemporalGranularity, mustIRI(uri.XSDNamespace+"string"))})
	}

	for _, rt := range reified {
		if err := enc.Encode(rt); err != nil {
			return helper.NewError("encode reified triple", err)
		}
	}
	return nil
}

// literalTerm infers the datatype of a literal value. Only the exact
// strings "true" and "false" are booleans, then integers, then doubles,
// and everything else stays a plain string.
func literalTerm(value string) rdf.Literal {
	if value == "true" || value == "false" {
		return rdf.NewTypedLiteral(value, xsdBoolean)
	}
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return rdf.NewTypedLiteral(value, xsdInteger)
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return rdf.NewTypedLiteral(value, xsdDouble)
	}
	lit, err := rdf.NewLiteral(value)
	if err != nil {
		return rdf.NewTypedLiteral(value, mustIRI(uri.XSDNamespace+"string"))
	}
	return lit
}

// Import parses RDF statements and rebuilds triples, folding reified
// statements with temporal regions back onto their plain counterparts
// so Export followed by Import restores the original temporal fields.
// All resulting triples are stamped with the given entity scope.
func Import(r io.Reader, format rdf.Format, entityType model.EntityType, entityID *int64, scenarioID *int64) ([]*model.Triple, error) {
	if !entityType.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidEntityType, entityType)
	}

	dec := rdf.NewTripleDecoder(r, format)

	var plain []rdf.Triple
	blankStatements := make(map[string][]rdf.Triple)
	for {
		tr, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, helper.NewError("decode triple", err)
		}
		if tr.Subj.Type() == rdf.TermBlank {
			key := tr.Subj.String()
			blankStatements[key] = append(blankStatements[key], tr)
			continue
		}
		plain = append(plain, tr)
	}

	triples := make([]*model.Triple, 0, len(plain))
	byKey := make(map[string]*model.Triple)
	for _, tr := range plain {
		t := fromRDF(tr, entityType)
		triples = append(triples, t)
		byKey[statementKey(t.Subject, t.Predicate, t.Object(), t.IsLiteral)] = t
	}

	// Second pass: resolve reified statements and backfill temporal
	// regions onto the matching plain triples.
	for _, statements := range blankStatements {
		if !isReifiedStatement(statements) {
			continue
		}
		subject, predicate, object, isLiteral, regionRef := reifiedParts(statements)
		if subject == "" || predicate == "" {
			continue
		}

		target := byKey[statementKey(subject, predicate, object, isLiteral)]
		if target == nil {
			if isLiteral {
				target = model.NewLiteralTriple(subject, predicate, object, entityType)
			} else {
				target = model.NewURITriple(subject, predicate, object, entityType)
			}
			triples = append(triples, target)
		}
		if regionRef != "" {
			applyTemporalRegion(target, blankStatements[regionRef])
		}
	}

	for _, t := range triples {
		t.EntityType = entityType
		t.EntityID = entityID
		t.ScenarioID = scenarioID
	}
	return triples, nil
}

// fromRDF converts a parsed RDF statement to a domain triple.
func fromRDF(tr rdf.Triple, entityType model.EntityType) *model.Triple {
	if tr.Obj.Type() == rdf.TermLiteral {
		return model.NewLiteralTriple(tr.Subj.String(), tr.Pred.String(), tr.Obj.String(), entityType)
	}
	return model.NewURITriple(tr.Subj.String(), tr.Pred.String(), tr.Obj.String(), entityType)
}

func isReifiedStatement(statements []rdf.Triple) bool {
	for _, tr := range statements {
		if tr.Pred.String() == rdfType.String() && tr.Obj.String() == rdfStatement.String() {
			return true
		}
	}
	return false
}

// reifiedParts extracts the subject, predicate, object and temporal
// region reference from the triples of one reification blank node.
func reifiedParts(statements []rdf.Triple) (subject, predicate, object string, isLiteral bool, regionRef string) {
	for _, tr := range statements {
		switch tr.Pred.String() {
		case rdfSubject.String():
			subject = tr.Obj.String()
		case rdfPredicate.String():
			predicate = tr.Obj.String()
		case rdfObject.String():
			object = tr.Obj.String()
			isLiteral = tr.Obj.Type() == rdf.TermLiteral
		case timeHasTime.String():
			regionRef = tr.Obj.String()
		}
	}
	return subject, predicate, object, isLiteral, regionRef
}

// applyTemporalRegion copies a temporal region blank node's fields onto
// a triple.
func applyTemporalRegion(t *model.Triple, statements []rdf.Triple) {
	for _, tr := range statements {
		switch tr.Pred.String() {
		case rdfType.String():
			switch tr.Obj.String() {
			case timeInterval.String():
				region := model.TemporalRegionInterval
				t.TemporalRegionType = &region
			case timeInstant.String():
				region := model.TemporalRegionInstant
				t.TemporalRegionType = &region
			}
		case timeHasBeginning.String():
			if at, err := time.Parse(time.RFC3339, tr.Obj.String()); err == nil {
				t.TemporalStart = &at
			}
		case timeHasEnd.String():
			if at, err := time.Parse(time.RFC3339, tr.Obj.String()); err == nil {
				t.TemporalEnd = &at
			}
		case timeUnitType.String():
			granularity := tr.Obj.String()
			t.TemporalGranularity = &granularity
		}
	}
}

// statementKey identifies a statement by its content for the
// reification backfill.
func statementKey(subject, predicate, object string, isLiteral bool) string {
	return strings.Join([]string{subject, predicate, object, strconv.FormatBool(isLiteral)}, "\x1f")
}
