package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"proposal-core/internal/handler/request"
	"proposal-core/internal/service"
	"proposal-core/pkg/errno"
	pkgvalidator "proposal-core/pkg/validator"
)

var draftFile string

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "提交提案",
	Long:  `读取 JSON 格式的提案草稿并写入链上合约，等待交易封存后输出提案 ID。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(draftFile)
		if err != nil {
			return fmt.Errorf("读取草稿失败: %w", err)
		}
		var req request.CreateProposalRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return fmt.Errorf("草稿格式错误: %w", err)
		}
		v := pkgvalidator.New()
		v.SetTagName("binding")
		if err := v.Struct(req); err != nil {
			return errno.ErrValidation.WithDetail(pkgvalidator.GetErrorMsg(err))
		}

		c, err := loadCore()
		if err != nil {
			return err
		}
		fmt.Printf("正在提交提案: %s ...\n", req.ParkName)
		result, err := c.proposals.CreateProposal(cmd.Context(), req.ToDraft())
		if err != nil {
			if se := service.AsSubmissionError(err); se != nil && se.ExplorerURL != "" {
				fmt.Printf("交易: %s\n浏览器: %s\n", se.TxID, se.ExplorerURL)
			}
			return err
		}
		return printJSON(result)
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "查询提案",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("无效的提案 ID: %s", args[0])
		}
		c, err := loadCore()
		if err != nil {
			return err
		}
		rec, err := c.query.FetchProposal(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(rec)
	},
}

var expand bool

var activeCmd = &cobra.Command{
	Use:   "active",
	Short: "列出活跃提案",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCore()
		if err != nil {
			return err
		}
		ids := c.query.GetAllActiveProposalIDs(cmd.Context())
		if !expand {
			return printJSON(ids)
		}
		for _, id := range ids {
			if rec := c.query.GetProposal(cmd.Context(), id); rec != nil {
				fmt.Printf("#%d  %-30s  yes=%d no=%d  end=%d\n", id, rec.ParkName, rec.YesVotes, rec.NoVotes, rec.EndDate)
			}
		}
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "关闭投票期已结束的提案",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCore()
		if err != nil {
			return err
		}
		report, err := c.sweeper.SweepExpiredProposals(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "显示网络与合约信息",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCore()
		if err != nil {
			return err
		}
		return printJSON(c.proposals.GetContractInfo())
	},
}

func init() {
	createCmd.Flags().StringVarP(&draftFile, "file", "f", "", "提案草稿 JSON 文件")
	_ = createCmd.MarkFlagRequired("file")
	activeCmd.Flags().BoolVar(&expand, "expand", false, "同时读取每个提案的详情")

	rootCmd.AddCommand(createCmd, getCmd, activeCmd, sweepCmd, infoCmd)
}
