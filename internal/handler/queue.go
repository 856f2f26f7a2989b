package handler

import (
	"strings"

	"github.com/json-to-terraform/constructs/internal/construct"
	"github.com/json-to-terraform/constructs/internal/manifest"
	"github.com/json-to-terraform/constructs/internal/registry"
	"github.com/json-to-terraform/constructs/internal/result"
	"github.com/json-to-terraform/constructs/internal/wrapper"
)

type queueProps struct {
	QueueName         string            `mapstructure:"queue_name"`
	Fifo              bool              `mapstructure:"fifo"`
	VisibilityTimeout int               `mapstructure:"visibility_timeout"`
	DeadLetterTarget  string            `mapstructure:"dead_letter_target"`
	MaxReceiveCount   int               `mapstructure:"max_receive_count"`
	Tags              map[string]string `mapstructure:"tags"`
}

type queueHandler struct{}

func init() {
	registry.Default.Register("queue", queueHandler{})
}

func (queueHandler) Kind() string { return "queue" }

func (queueHandler) Validate(c *manifest.Construct) ([]result.Error, []result.Warning) {
	var p queueProps
	errs := decodeErrors(c, &p, "Use queue_name, fifo, visibility_timeout, dead_letter_target, max_receive_count, tags")
	if len(errs) == 0 {
		if p.Fifo && p.QueueName != "" && !strings.HasSuffix(p.QueueName, ".fifo") {
			errs = append(errs, validationError("fifo queue names must end in .fifo",
				"Rename the queue to "+p.QueueName+".fifo"))
		}
		if p.VisibilityTimeout < 0 || p.VisibilityTimeout > 43200 {
			errs = append(errs, validationError("visibility_timeout is out of range",
				"Use a value between 0 and 43200 seconds"))
		}
		if p.MaxReceiveCount != 0 && p.DeadLetterTarget == "" {
			errs = append(errs, validationError("max_receive_count needs dead_letter_target",
				"Set properties.dead_letter_target to a queue declared earlier"))
		}
	}
	return append(errs, validateGrants(c)...), nil
}

func (queueHandler) Build(scope Scope, c *manifest.Construct) (*construct.Node, error) {
	var p queueProps
	if err := c.Decode(&p); err != nil {
		return nil, err
	}
	w, err := wrapper.New(scope.Node, c.ID, QueueType)
	if err != nil {
		return nil, err
	}

	s := setter{w: w}
	if p.QueueName != "" {
		s.set("queue_name", p.QueueName)
	}
	if p.Fifo {
		s.set("fifo_queue", true)
	}
	if p.VisibilityTimeout > 0 {
		s.set("visibility_timeout", p.VisibilityTimeout)
	}
	if p.DeadLetterTarget != "" {
		dlq, err := resourceAt(scope, p.DeadLetterTarget)
		if err != nil {
			return nil, err
		}
		if p.MaxReceiveCount == 0 {
			p.MaxReceiveCount = 3
		}
		s.set("redrive_policy.dead_letter_target_arn", dlq.GetAtt("Arn"))
		s.set("redrive_policy.max_receive_count", p.MaxReceiveCount)
	}
	if len(p.Tags) > 0 {
		s.set("tags", tagList(p.Tags))
	}
	if s.err != nil {
		return nil, s.err
	}

	if err := configure(w.Resource(), c); err != nil {
		return nil, err
	}
	if err := grant(w, c); err != nil {
		return nil, err
	}
	return w.Node(), nil
}
