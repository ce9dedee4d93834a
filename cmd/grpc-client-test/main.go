package main

import (
	"context"
	"flag"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/wrapperspb"

	handler_grpc "proposal-core/internal/handler/grpc"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:50051", "gRPC 服务地址")
	id := flag.Uint64("id", 0, "要查询的提案 ID (0 表示取第一个活跃提案)")
	flag.Parse()

	// Set up a connection to the server.
	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("did not connect: %v", err)
	}
	defer conn.Close()
	c := handler_grpc.NewProposalServiceClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Test 1: 合约信息
	info, err := c.GetContractInfo(ctx)
	if err != nil {
		log.Fatalf("could not get contract info: %v", err)
	}
	log.Printf("Contract: %s", protojson.Format(info))

	// Test 2: 活跃提案
	active, err := c.ListActiveProposals(ctx)
	if err != nil {
		log.Fatalf("could not list active proposals: %v", err)
	}
	log.Printf("Active: %s", protojson.Format(active))

	target := *id
	if target == 0 {
		ids := active.GetFields()["ids"].GetListValue().GetValues()
		if len(ids) == 0 {
			log.Printf("no active proposals, done")
			return
		}
		target = uint64(ids[0].GetNumberValue())
	}

	// Test 3: 单个提案
	p, err := c.GetProposal(ctx, wrapperspb.UInt64(target))
	if err != nil {
		log.Fatalf("could not get proposal %d: %v", target, err)
	}
	log.Printf("Proposal %d: %s", target, protojson.Format(p))
}
